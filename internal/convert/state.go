package convert

import (
	"fmt"

	"github.com/thywilljoshua/pdf-extract/internal/document"
	"github.com/thywilljoshua/pdf-extract/internal/extract"
)

// Slot is a field that is either absent or set once.
type Slot[T any] struct {
	v   T
	set bool
}

func Set[T any](v T) Slot[T] { return Slot[T]{v: v, set: true} }

func (s Slot[T]) Get() (T, bool) { return s.v, s.set }

func (s Slot[T]) IsSet() bool { return s.set }

// Value returns the value, or the zero value when absent.
func (s Slot[T]) Value() T { return s.v }

// State is threaded through the pipeline. Each stage owns one slot and
// returns a delta holding only that slot; merge never lets a later stage
// overwrite or clear a slot that is already set.
type State struct {
	Source       document.Source
	Text         Slot[string]
	Tables       Slot[[]extract.TableRecord]
	Images       Slot[[]extract.ImageRecord]
	FinalContent Slot[string]
}

func newState(src document.Source) State {
	return State{Source: src}
}

// merge returns a new state with the slots set in d added to s.
func (s State) merge(d State) (State, error) {
	out := s
	if err := mergeSlot(&out.Text, d.Text, "text"); err != nil {
		return s, err
	}
	if err := mergeSlot(&out.Tables, d.Tables, "tables"); err != nil {
		return s, err
	}
	if err := mergeSlot(&out.Images, d.Images, "images"); err != nil {
		return s, err
	}
	if err := mergeSlot(&out.FinalContent, d.FinalContent, "final content"); err != nil {
		return s, err
	}
	return out, nil
}

func mergeSlot[T any](dst *Slot[T], src Slot[T], name string) error {
	if !src.set {
		return nil
	}
	if dst.set {
		return fmt.Errorf("%s already set", name)
	}
	*dst = src
	return nil
}
