package middlewarex

import "context"

type ctxKey string

const (
	ctxOperator ctxKey = "operator"
	ctxSubject  ctxKey = "subject"
)

func WithOperator(ctx context.Context, operator, subject string) context.Context {
	ctx = context.WithValue(ctx, ctxOperator, operator)
	return context.WithValue(ctx, ctxSubject, subject)
}

func Operator(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxOperator).(string)
	return v, ok && v != ""
}

func Subject(ctx context.Context) string {
	v, _ := ctx.Value(ctxSubject).(string)
	return v
}
