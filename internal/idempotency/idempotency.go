// Package idempotency remembers the outcome of order submissions keyed by
// the client's Idempotency-Key header, so a retried request returns the
// original receipt instead of placing the order twice.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/zensushi/zen/internal/domain"
)

// HeaderKey is the request header carrying the client's key.
const HeaderKey = "Idempotency-Key"

// HeaderReplayed marks a response served from a stored record.
const HeaderReplayed = "Idempotent-Replayed"

// MaxKeyLength bounds accepted keys.
const MaxKeyLength = 255

// DefaultPendingTTL bounds how long an unfinished claim blocks its key.
const DefaultPendingTTL = 30 * time.Second

// ErrInProgress is returned by Begin while another request holds the key.
var ErrInProgress = errors.New("idempotency: request with this key is in progress")

// Record is what a finished request leaves behind.
type Record struct {
	OrderID string         `json:"order_id"`
	Receipt domain.Receipt `json:"receipt"`
}

// Store claims keys and keeps finished records.
type Store interface {
	// Begin claims key. It returns (nil, nil) when the caller now owns the
	// key, the stored record when the key already finished, or
	// ErrInProgress when another claim is still open.
	Begin(ctx context.Context, key string) (*Record, error)

	// Finish stores the record for a claimed key.
	Finish(ctx context.Context, key string, rec Record) error

	// Abort releases a claim so the key can be retried.
	Abort(ctx context.Context, key string) error
}
