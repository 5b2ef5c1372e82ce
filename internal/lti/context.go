package lti

import "context"

type ctxKey string

const (
	ctxKeyIdentity ctxKey = "identity"
	ctxKeyLtik     ctxKey = "ltik"
)

func WithIdentity(ctx context.Context, ic IdentityContext) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, ic)
}

func IdentityFromContext(ctx context.Context) (IdentityContext, bool) {
	ic, ok := ctx.Value(ctxKeyIdentity).(IdentityContext)
	return ic, ok
}

func WithLtik(ctx context.Context, tok string) context.Context {
	return context.WithValue(ctx, ctxKeyLtik, tok)
}

func LtikFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyLtik).(string); ok {
		return s
	}
	return ""
}
