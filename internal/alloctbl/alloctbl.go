// Package alloctbl implements the allocation index shared by the fixed-size
// tables of the store: a used bitmap plus a stack of free slot numbers.
//
// A Table is not safe for concurrent use; each owner guards it with the same
// lock that protects the records the slots describe.
package alloctbl

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

type Table[T constraints.Integer] struct {
	used []bool
	free []T
}

// New returns a table of n free slots. Slots are handed out lowest first on a
// fresh table, but callers must not depend on any particular order.
func New[T constraints.Integer](n int) *Table[T] {
	t := &Table[T]{
		used: make([]bool, n),
		free: make([]T, 0, n),
	}
	for i := n - 1; i >= 0; i-- {
		t.free = append(t.free, T(i))
	}
	return t
}

// Alloc marks some free slot as used and returns it. ok is false when every
// slot is in use.
func (t *Table[T]) Alloc() (slot T, ok bool) {
	if len(t.free) == 0 {
		return 0, false
	}
	slot = t.free[len(t.free)-1]
	t.free = t.free[:len(t.free)-1]
	t.used[slot] = true
	return slot, true
}

// Free returns a used slot to the table. Freeing a slot that is out of range
// or already free means the caller lost track of ownership, so it panics.
func (t *Table[T]) Free(slot T) {
	if !t.valid(slot) {
		panic(fmt.Sprintf("alloctbl: free of out-of-range slot %d", slot))
	}
	if !t.used[slot] {
		panic(fmt.Sprintf("alloctbl: double free of slot %d", slot))
	}
	t.used[slot] = false
	t.free = append(t.free, slot)
}

func (t *Table[T]) InUse(slot T) bool {
	return t.valid(slot) && t.used[slot]
}

func (t *Table[T]) Used() int {
	return len(t.used) - len(t.free)
}

func (t *Table[T]) Cap() int {
	return len(t.used)
}

func (t *Table[T]) valid(slot T) bool {
	return slot >= 0 && int(slot) < len(t.used)
}
