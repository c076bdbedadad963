package domain

import "context"

type CtxKey string

const (
	KeyRequestID CtxKey = "RequestID"
	KeyAdminSub  CtxKey = "AdminSubject"
)

// RequestIDFromContext returns the id set by the request id middleware, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(KeyRequestID).(string)
	return id
}
