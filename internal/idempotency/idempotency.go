package idempotency

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type ctxKey struct{}

func WithKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ctxKey{}, key)
}

// GetKey returns the key stored in ctx, or a fresh one when the caller did not set any.
func GetKey(ctx context.Context) string {
	key, ok := ctx.Value(ctxKey{}).(string)
	if !ok || key == "" {
		return uuid.NewString()
	}

	return key
}

// Derive builds a deterministic key from a parent key and the parts that scope it,
// so a retried delivery of the same message maps to the same key.
func Derive(parent string, parts ...string) string {
	name := parent + "|" + strings.Join(parts, "|")
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
