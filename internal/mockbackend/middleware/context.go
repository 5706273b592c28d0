package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const userIDKey contextKey = "user_id"

// SetUserID stores the authenticated user id and reports it to the request
// logger.
func SetUserID(ctx context.Context, id int) context.Context {
	recordUserID(ctx, id)
	return context.WithValue(ctx, userIDKey, id)
}

func GetUserID(r *http.Request) (int, bool) {
	id, ok := r.Context().Value(userIDKey).(int)
	return id, ok
}
