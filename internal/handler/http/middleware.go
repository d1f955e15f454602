package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/zensushi/zen/internal/idempotency"
	apperrors "github.com/zensushi/zen/pkg/errors"
	"github.com/zensushi/zen/pkg/httputil"
)

type contextKey string

const idempotencyKeyCtx contextKey = "idempotency_key"

// IdempotencyKey validates the optional Idempotency-Key header and stores
// it in the request context.
func IdempotencyKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(idempotency.HeaderKey)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		if len(key) > idempotency.MaxKeyLength {
			httputil.WriteValidationError(w, r, apperrors.InvalidInput(
				idempotency.HeaderKey+" must be at most "+strconv.Itoa(idempotency.MaxKeyLength)+" characters"))
			return
		}
		ctx := context.WithValue(r.Context(), idempotencyKeyCtx, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func idempotencyKeyFromContext(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKeyCtx).(string)
	return key
}
