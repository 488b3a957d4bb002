// Package diagnostics implements the coded, positioned error model
// used throughout analysis. It generalizes the dedup-by-position
// pattern the teacher's walker applies to its own error set.
package diagnostics

import (
	"fmt"
	"sort"

	"github.com/arborist-lang/arborist/internal/token"
)

// Code identifies the kind of diagnostic, independent of its message
// text, so downstream consumers (IDEs, tests) can switch on it.
type Code string

const (
	ParseFailure        Code = "E-PARSE"
	UnableToBindArg     Code = "E-BINDARG"
	CallingNonCallable  Code = "E-NONCALL"
	AttributeNotFound   Code = "E-NOATTR"
	FunctionNotReturns  Code = "E-NORETURN"
	UndefinedName       Code = "E-UNDEF"
	CacheIOFailure      Code = "W-CACHEIO"
	InvalidUnpackTarget Code = "E-UNPACK"
)

// Diagnostic is a single, positioned, coded problem report attached to
// a node's token. It is always recoverable: the analyzer that emits
// one keeps going, substituting Unknown for whatever failed.
type Diagnostic struct {
	Code    Code
	Pos     token.Position
	File    string
	Message string
}

func New(code Code, file string, pos token.Position, message string) *Diagnostic {
	return &Diagnostic{Code: code, Pos: pos, File: file, Message: message}
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s:%s: %s [%s]", d.File, d.Pos, d.Message, d.Code)
}

// Bag deduplicates diagnostics by (file, line, col, code) and returns
// them in a deterministic, position-sorted order, mirroring
// walker.getErrors in the teacher's analyzer.
type Bag struct {
	byKey map[string]*Diagnostic
}

func NewBag() *Bag {
	return &Bag{byKey: make(map[string]*Diagnostic)}
}

func (b *Bag) Add(d *Diagnostic) {
	if d == nil {
		return
	}
	key := fmt.Sprintf("%s:%d:%d:%s", d.File, d.Pos.Line, d.Pos.Column, d.Code)
	b.byKey[key] = d
}

func (b *Bag) AddAll(ds []*Diagnostic) {
	for _, d := range ds {
		b.Add(d)
	}
}

func (b *Bag) All() []*Diagnostic {
	out := make([]*Diagnostic, 0, len(b.byKey))
	for _, d := range b.byKey {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		if out[i].Pos.Line != out[j].Pos.Line {
			return out[i].Pos.Line < out[j].Pos.Line
		}
		return out[i].Pos.Column < out[j].Pos.Column
	})
	return out
}

func (b *Bag) Len() int { return len(b.byKey) }
