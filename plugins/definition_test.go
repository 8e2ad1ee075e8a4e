package plugins

import (
	"errors"
	"strings"
	"testing"

	"github.com/kingrea/xaicompare/internal/adapter"
	"github.com/kingrea/xaicompare/internal/adapters/keyword"
)

func TestAdapterDefinitionValidate(t *testing.T) {
	def := AdapterDefinition{
		Key:     "sentiment",
		Kind:    "keyword",
		Version: "1.0.0",
		Params:  adapter.Config{"classes": []any{"neg", "pos"}},
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("expected definition to validate, got %v", err)
	}
}

func TestAdapterDefinitionValidateFailures(t *testing.T) {
	tests := []struct {
		name string
		def  AdapterDefinition
		msg  string
	}{
		{
			name: "missing key",
			def:  AdapterDefinition{Kind: "keyword", Version: "1.0.0"},
			msg:  "key is required",
		},
		{
			name: "blank key",
			def:  AdapterDefinition{Key: "   ", Kind: "keyword", Version: "1.0.0"},
			msg:  "key is required",
		},
		{
			name: "missing version",
			def:  AdapterDefinition{Key: "sentiment", Kind: "keyword"},
			msg:  "version is required",
		},
		{
			name: "missing kind",
			def:  AdapterDefinition{Key: "sentiment", Version: "1.0.0"},
			msg:  "kind is required",
		},
		{
			name: "self reference",
			def:  AdapterDefinition{Key: "keyword", Kind: " keyword ", Version: "1.0.0"},
			msg:  "different adapter",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.def.Validate(); err == nil || !strings.Contains(err.Error(), tc.msg) {
				t.Fatalf("expected error containing %q, got %v", tc.msg, err)
			}
		})
	}
}

func TestAdapterDefinitionNormalized(t *testing.T) {
	def := AdapterDefinition{
		Key:     "  sentiment ",
		Kind:    "keyword\n",
		Version: " 2 ",
		Params:  adapter.Config{" smoothing ": 0.5, " ": "dropped"},
	}
	got := def.Normalized()
	if got.Key != "sentiment" || got.Kind != "keyword" || got.Version != "2" {
		t.Fatalf("unexpected normalized definition %+v", got)
	}
	if len(got.Params) != 1 || got.Params["smoothing"] != 0.5 {
		t.Fatalf("unexpected params %v", got.Params)
	}
	if _, ok := def.Params["smoothing"]; ok {
		t.Fatalf("normalizing must not modify the source params")
	}
}

func TestRegistrationResolvesKindLazily(t *testing.T) {
	reg := adapter.NewRegistry()
	def := AdapterDefinition{
		Key:     "sentiment",
		Kind:    keyword.Key,
		Version: "1",
		Params: adapter.Config{
			"classes":  []any{"neg", "pos"},
			"keywords": map[string]any{"neg": []any{"bad"}, "pos": []any{"good"}},
		},
	}
	if err := def.Registration()(reg); err != nil {
		t.Fatalf("register definition: %v", err)
	}
	if _, err := reg.New("sentiment", nil); !errors.Is(err, adapter.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before the kind exists, got %v", err)
	}
	if err := keyword.Register(reg); err != nil {
		t.Fatalf("register keyword: %v", err)
	}
	a, err := reg.New("sentiment", nil)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	preds, err := a.Predict([]any{"good stuff"})
	if err != nil || len(preds) != 1 || preds[0] != "pos" {
		t.Fatalf("predict = %v, %v", preds, err)
	}
}
