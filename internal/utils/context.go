package utils

import (
	"context"

	"github.com/EmpoweredVote/EV-Links/internal/models"
)

type contextKey string

const (
	ContextUserKey      contextKey = "user"
	ContextSessionIDKey contextKey = "sessionID"
)

// WithSession stores the authenticated user and the session id that proved it.
func WithSession(ctx context.Context, user *models.User, sessionID string) context.Context {
	ctx = context.WithValue(ctx, ContextUserKey, user)
	return context.WithValue(ctx, ContextSessionIDKey, sessionID)
}

func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(ContextUserKey).(*models.User)
	return user, ok && user != nil
}

func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextSessionIDKey).(string)
	return id, ok
}
