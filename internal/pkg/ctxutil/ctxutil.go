// Package ctxutil carries request-scoped values (the decoded auth
// token, trace identifiers) through a context.Context.
package ctxutil

import "context"

type authKey struct{}

// AuthData is attached to the request context once the Kernel's
// authentication gate succeeds.
type AuthData struct {
	Sub string
	JTI string
	IAT int64
}

func WithAuth(ctx context.Context, auth *AuthData) context.Context {
	return context.WithValue(ctx, authKey{}, auth)
}

func GetAuth(ctx context.Context) *AuthData {
	v, _ := ctx.Value(authKey{}).(*AuthData)
	return v
}

type traceKey struct{}

type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	v, _ := ctx.Value(traceKey{}).(*TraceData)
	return v
}

type bodyKey struct{}

// WithBody attaches the JSON body the Kernel's validation gate already
// decoded, so a Callback never needs to re-read the request stream.
func WithBody(ctx context.Context, body map[string]any) context.Context {
	return context.WithValue(ctx, bodyKey{}, body)
}

func GetBody(ctx context.Context) map[string]any {
	v, _ := ctx.Value(bodyKey{}).(map[string]any)
	return v
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
