// Package requestctx carries per-request values through context.
package requestctx

import "context"

type localeContextKey struct{}

// WithLocale stores the caller's Accept-Language value in context.
func WithLocale(ctx context.Context, acceptLanguage string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, localeContextKey{}, acceptLanguage)
}

// LocaleFromContext returns the Accept-Language value stored in context.
func LocaleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(localeContextKey{}).(string)
	return value
}
