package http

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
)

type ctxKey string

const (
	identityKey  ctxKey = "identity"
	sessionIDKey ctxKey = "session_id"
)

func withIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// getIdentity never returns an empty identity; requests that skipped the identity
// middleware are guests.
func getIdentity(ctx context.Context) domain.Identity {
	if id, ok := ctx.Value(identityKey).(domain.Identity); ok && id.UserID != "" {
		return id
	}
	return domain.GuestIdentity()
}

func withSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sid)
}

func getSessionID(ctx context.Context) string {
	if sid, ok := ctx.Value(sessionIDKey).(string); ok {
		return sid
	}
	return ""
}
