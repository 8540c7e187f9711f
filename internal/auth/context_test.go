package auth

import (
	"context"
	"testing"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if _, ok := IdentityFromContext(ctx); ok {
		t.Fatalf("unexpected identity")
	}
	ctx = ContextWithIdentity(ctx, Identity{Username: "alice", Role: RoleRead})
	got, ok := IdentityFromContext(ctx)
	if !ok || got.Username != "alice" {
		t.Fatalf("identity = %+v, %v", got, ok)
	}

	if ContextWithToken(ctx, "") != ctx {
		t.Fatalf("empty token should not change context")
	}
	ctx = ContextWithToken(ctx, "abc")
	if tok, ok := TokenFromContext(ctx); !ok || tok != "abc" {
		t.Fatalf("token = %q, %v", tok, ok)
	}
}
