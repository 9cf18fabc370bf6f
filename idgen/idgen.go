// Package idgen hands out the identifiers of tasks registered with a
// scheduler.
package idgen

import (
	"strconv"
	"sync/atomic"
)

// ID identifies a task for as long as its scheduler lives.
type ID uint64

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Parse converts the decimal form produced by String back into an ID.
func Parse(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}

	return ID(v), nil
}

// Generator produces unique identifiers.
type Generator interface {
	Generate() ID
}

// New returns a sequential generator whose first emitted ID is "1".
func New() Generator {
	return &sequentialGenerator{}
}

type sequentialGenerator struct {
	next uint64
}

func (g *sequentialGenerator) Generate() ID {
	return ID(atomic.AddUint64(&g.next, 1))
}
