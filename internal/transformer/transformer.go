// Package transformer composes record-level cleaning steps.
package transformer

import "pisaetl/internal/record"

// Transformer rewrites a slice of records. Implementations may mutate and
// reslice the input.
type Transformer interface {
	Apply([]record.Record) []record.Record
}

// Chain is an ordered list of transformers.
type Chain []Transformer

func (c Chain) Apply(in []record.Record) []record.Record {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}

// Func adapts a plain function to Transformer.
type Func func([]record.Record) []record.Record

func (f Func) Apply(in []record.Record) []record.Record { return f(in) }
