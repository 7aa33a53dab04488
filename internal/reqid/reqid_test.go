package reqid

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestContextRoundTrip(t *testing.T) {
	ctx, id := NewContext(context.Background(), "")
	got, ok := FromContext(ctx)
	if !ok || got != id {
		t.Fatalf("expected %q from context, got %q ok=%v", id, got, ok)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("generated id %q is not a uuid: %v", id, err)
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Fatalf("unexpected id in empty context")
	}
}

func TestProvidedID(t *testing.T) {
	ctx, id := NewContext(context.Background(), "c6af9ac6-7b61-11e6-9a41-93e8deadbeef")
	if id != "c6af9ac6-7b61-11e6-9a41-93e8deadbeef" {
		t.Fatalf("provided id replaced: %q", id)
	}
	if got, _ := FromContext(ctx); got != id {
		t.Fatalf("got %q want %q", got, id)
	}
}
