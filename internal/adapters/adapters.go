// Package adapters wires the built-in adapter families.
package adapters

import (
	"github.com/kingrea/xaicompare/internal/adapter"
	"github.com/kingrea/xaicompare/internal/adapters/keyword"
	"github.com/kingrea/xaicompare/internal/adapters/linear"
)

// Builtin pairs a built-in adapter package with its registration function.
type Builtin struct {
	Name     string
	Register func(*adapter.Registry) error
}

// Builtins lists the compiled-in adapter packages.
func Builtins() []Builtin {
	return []Builtin{
		{Name: linear.Key, Register: linear.Register},
		{Name: keyword.Key, Register: keyword.Register},
	}
}

// RegisterBuiltins installs every compiled-in adapter.
func RegisterBuiltins(reg *adapter.Registry) error {
	for _, b := range Builtins() {
		if err := b.Register(reg); err != nil {
			return err
		}
	}
	return nil
}
