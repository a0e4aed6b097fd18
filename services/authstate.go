package services

import (
	"context"
	"sync/atomic"
)

type authStateKey struct{}

// AuthState records, for one inbound request, whether any upstream call made
// on its behalf was rejected with 401.
type AuthState struct {
	expired atomic.Bool
}

func (s *AuthState) Expired() bool {
	return s.expired.Load()
}

func WithAuthState(ctx context.Context) (context.Context, *AuthState) {
	state := &AuthState{}
	return context.WithValue(ctx, authStateKey{}, state), state
}

// MarkAuthExpired is a no-op when ctx carries no AuthState.
func MarkAuthExpired(ctx context.Context) {
	if state, ok := ctx.Value(authStateKey{}).(*AuthState); ok {
		state.expired.Store(true)
	}
}

func AuthExpired(ctx context.Context) bool {
	state, ok := ctx.Value(authStateKey{}).(*AuthState)
	return ok && state.Expired()
}
