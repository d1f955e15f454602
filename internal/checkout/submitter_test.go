package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zensushi/zen/internal/cart"
	"github.com/zensushi/zen/internal/domain"
	"github.com/zensushi/zen/internal/idempotency"
	apperrors "github.com/zensushi/zen/pkg/errors"
	"github.com/zensushi/zen/pkg/httpclient"
	"github.com/zensushi/zen/pkg/logger"
	"github.com/zensushi/zen/pkg/money"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func singleAttemptClient() *httpclient.Client {
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	cfg.Timeout = 5 * time.Second
	return httpclient.New(cfg)
}

func sushiAndYakisoba(t *testing.T) *cart.Store {
	t.Helper()
	s := cart.NewStore(discardLogger())
	_, err := s.Add("Sushi Especial", 2500)
	require.NoError(t, err)
	_, err = s.Add("Yakisoba", 3000)
	require.NoError(t, err)
	return s
}

func okHandler(t *testing.T, got *domain.Order) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, OrderPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Order-ID", "ord-77")
		_, _ = io.WriteString(w, `{"mensagem":"Pedido processado com sucesso! 🎉","detalhes":{"total":55,"itens":2,"pagamento":"PIX"}}`)
	}
}

func TestSubmit_Success(t *testing.T) {
	var got domain.Order
	srv := httptest.NewServer(okHandler(t, &got))
	defer srv.Close()

	sub := NewSubmitter(singleAttemptClient(), srv.URL+"/", time.Second, discardLogger())
	res, err := sub.Submit(context.Background(), sushiAndYakisoba(t).Snapshot(), domain.PaymentPIX)

	require.NoError(t, err)
	assert.Equal(t, OrderResult{
		Success:       true,
		Message:       "Pedido processado com sucesso! 🎉",
		ItemCount:     2,
		Total:         5500,
		PaymentMethod: "PIX",
		OrderID:       "ord-77",
	}, res)

	require.Len(t, got.Items, 2)
	assert.Equal(t, "Sushi Especial", got.Items[0].Name)
	assert.Equal(t, money.Cents(2500), got.Items[0].Price)
	assert.Equal(t, money.Cents(5500), got.Total)
	assert.Equal(t, domain.PaymentPIX, got.PaymentMethod)
}

func TestSubmit_SendsSessionAsIdempotencyKey(t *testing.T) {
	var key, session string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get(idempotency.HeaderKey)
		session = r.Header.Get("X-Session-ID")
		w.Header().Set(idempotency.HeaderReplayed, "true")
		okHandler(t, nil)(w, r)
	}))
	defer srv.Close()

	sub := NewSubmitter(singleAttemptClient(), srv.URL, time.Second, discardLogger())
	ctx := logger.WithSessionID(context.Background(), "sess-1")
	res, err := sub.Submit(ctx, sushiAndYakisoba(t).Snapshot(), domain.PaymentPIX)

	require.NoError(t, err)
	assert.Equal(t, "sess-1", key)
	assert.Equal(t, "sess-1", session)
	assert.True(t, res.Replayed)
}

func TestSubmit_ValidationBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()
	sub := NewSubmitter(singleAttemptClient(), srv.URL, time.Second, discardLogger())

	res, err := sub.Submit(context.Background(), cart.Snapshot{}, domain.PaymentPIX)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.False(t, res.Success)
	assert.Equal(t, MessageFailure, res.Message)

	_, err = sub.Submit(context.Background(), sushiAndYakisoba(t).Snapshot(), "Boleto")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	assert.Zero(t, hits.Load())
}

func TestSubmit_Failures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantKind   error
		wantStatus int
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantKind:   ErrRemote,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "validation envelope",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"error":{"code":"VALIDATION_ERROR","message":"request validation failed"}}`)
			},
			wantKind:   ErrRemote,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"mensagem":`)
			},
			wantKind:   ErrDecode,
			wantStatus: http.StatusOK,
		},
		{
			name: "body without mensagem",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{}`)
			},
			wantKind:   ErrDecode,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			sub := NewSubmitter(singleAttemptClient(), srv.URL, time.Second, discardLogger())
			res, err := sub.Submit(context.Background(), sushiAndYakisoba(t).Snapshot(), domain.PaymentCard)

			assert.False(t, res.Success)
			assert.Equal(t, MessageFailure, res.Message)
			assert.ErrorIs(t, err, tt.wantKind)
			var subErr *SubmitError
			require.ErrorAs(t, err, &subErr)
			assert.Equal(t, tt.wantStatus, subErr.Status)
		})
	}
}

func TestSubmit_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	sub := NewSubmitter(singleAttemptClient(), url, time.Second, discardLogger())
	res, err := sub.Submit(context.Background(), sushiAndYakisoba(t).Snapshot(), domain.PaymentCash)

	assert.False(t, res.Success)
	assert.Equal(t, MessageFailure, res.Message)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestSubmit_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	sub := NewSubmitter(singleAttemptClient(), srv.URL, 50*time.Millisecond, discardLogger())
	start := time.Now()
	_, err := sub.Submit(context.Background(), sushiAndYakisoba(t).Snapshot(), domain.PaymentPIX)

	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSubmit_DoesNotRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sub := NewSubmitter(singleAttemptClient(), srv.URL, time.Second, discardLogger())
	_, err := sub.Submit(context.Background(), sushiAndYakisoba(t).Snapshot(), domain.PaymentPIX)

	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestSubmit_ConcurrentCallsShareOneRequest(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		okHandler(t, nil)(w, r)
	}))
	defer srv.Close()

	sub := NewSubmitter(singleAttemptClient(), srv.URL, 5*time.Second, discardLogger())
	snap := sushiAndYakisoba(t).Snapshot()

	const callers = 5
	var wg sync.WaitGroup
	results := make([]OrderResult, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = sub.Submit(context.Background(), snap, domain.PaymentPIX)
		}(i)
	}

	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, "ord-77", results[i].OrderID)
	}
}

func TestSubmit_CircuitBreakerOpen(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cbCfg := httpclient.DefaultCircuitBreakerConfig("zen-order-test")
	cbCfg.MinRequests = 2
	cbCfg.FailureRatio = 0.5
	cb := httpclient.NewCircuitBreakerClient(singleAttemptClient(), cbCfg, discardLogger())

	var logs bytes.Buffer
	sub := NewSubmitter(cb, srv.URL, time.Second, slog.New(slog.NewJSONHandler(&logs, nil)))
	snap := sushiAndYakisoba(t).Snapshot()
	for range 2 {
		_, err := sub.Submit(context.Background(), snap, domain.PaymentPIX)
		require.ErrorIs(t, err, ErrRemote)
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())

	res, err := sub.Submit(context.Background(), snap, domain.PaymentPIX)

	assert.Equal(t, MessageFailure, res.Message)
	assert.ErrorIs(t, err, ErrTransport)
	assert.True(t, errors.Is(err, httpclient.ErrCircuitOpen))
	assert.Equal(t, int32(2), hits.Load())
	assert.Contains(t, logs.String(), `"breaker_state":"open"`)
}
