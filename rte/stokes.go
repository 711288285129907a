// Package rte integrates the polarized radiative-transfer equation along a
// propagation path and propagates the Jacobian of the sensor radiance with
// respect to retrieval targets.
package rte

import (
	"errors"
	"fmt"
)

var (
	// ErrBadStokesDim reports a Stokes dimension outside 1..4.
	ErrBadStokesDim = errors.New("stokes dimension must be 1..4")
	// ErrShapeMismatch reports inputs whose lengths disagree.
	ErrShapeMismatch = errors.New("input shape mismatch")
	// ErrEmptyPath reports a path without points.
	ErrEmptyPath = errors.New("empty path")
)

// StokesDim is the number of Stokes components carried, 1 (intensity only)
// to 4 (full polarization).
type StokesDim int

// Validate returns ErrBadStokesDim for dimensions outside 1..4.
func (n StokesDim) Validate() error {
	if n < 1 || n > 4 {
		return fmt.Errorf("%w: got %d", ErrBadStokesDim, int(n))
	}
	return nil
}

// Stokes is a Stokes vector (I, Q, U, V) truncated to the dimension in use.
type Stokes []float64

// Clone returns a copy of s.
func (s Stokes) Clone() Stokes { return append(Stokes(nil), s...) }

// Unpolarized returns an n-component vector with intensity i.
func Unpolarized(n StokesDim, i float64) Stokes {
	s := make(Stokes, n)
	s[0] = i
	return s
}
