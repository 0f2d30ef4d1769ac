package logging

import (
	"context"
	"slices"
)

type fieldsKey struct{}

// ContextWith returns a child of ctx carrying key-value pairs. Both backends
// prepend them to every entry logged with that context.
func ContextWith(ctx context.Context, args ...any) context.Context {
	prev := contextFields(ctx)
	fields := make([]any, 0, len(prev)+len(args))
	fields = append(fields, prev...)
	fields = append(fields, args...)
	return context.WithValue(ctx, fieldsKey{}, fields)
}

func contextFields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey{}).([]any)
	return fields
}

// withContextFields returns the context pairs followed by args.
func withContextFields(ctx context.Context, args []any) []any {
	fields := contextFields(ctx)
	if len(fields) == 0 {
		return args
	}
	return append(slices.Clip(fields), args...)
}
