// Package session holds server-side browser session state keyed by an opaque
// session id. The browser only ever holds a signed token naming the id.
package session

import (
	"context"
	"errors"
)

// ErrNotFound indicates the session id resolves to no live session.
var ErrNotFound = errors.New("session: not found")

// Data is the state stored for one browser session.
type Data struct {
	UserID  uint64 `json:"user_id"`  // Authenticated user id; 0 when anonymous.
	IsAdmin bool   `json:"is_admin"` // Admin flag snapshot taken at login.

	// AnalysisStartedAtMS is the epoch-millisecond timestamp of the most
	// recent accepted analysis call; 0 until the first call.
	AnalysisStartedAtMS int64 `json:"analysis_started_at_ms"`
}

// BeginResult describes the outcome of a cooldown-gated analysis start.
type BeginResult struct {
	Allowed bool
	// BlockedUntil is the epoch-millisecond instant the gate reopens. When
	// the call is allowed it reflects the window started by this call.
	BlockedUntil int64
}

// Store persists session state. BeginAnalysis performs the cooldown
// check-then-set atomically so concurrent double-submits from one session
// cannot both pass the check.
type Store interface {
	Get(ctx context.Context, id string) (Data, bool, error)
	Put(ctx context.Context, id string, data Data) error
	Delete(ctx context.Context, id string) error
	BeginAnalysis(ctx context.Context, id string, nowMS, windowMS int64) (BeginResult, error)
}
