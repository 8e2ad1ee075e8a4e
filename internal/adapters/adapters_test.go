package adapters

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kingrea/xaicompare/internal/adapter"
)

func TestRegisterBuiltins(t *testing.T) {
	reg := adapter.NewRegistry()
	if err := RegisterBuiltins(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if diff := cmp.Diff([]string{"keyword", "linear"}, reg.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if err := RegisterBuiltins(reg); err == nil {
		t.Fatalf("expected second registration to be rejected")
	}
}
