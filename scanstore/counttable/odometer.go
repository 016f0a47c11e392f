package counttable

import (
	"fmt"
	"math"
	"slices"
)

// Combinations returns the number of rows a mixed-radix counter over sizes
// produces: their product, 0 if any size is 0. A negative size or a product
// that does not fit in an int fails with ErrOutOfRange.
func Combinations(sizes []int) (int, error) {
	if slices.Contains(sizes, 0) {
		return 0, nil
	}
	n := 1
	for _, s := range sizes {
		if s < 0 {
			return 0, fmt.Errorf("%w: negative size %d", ErrOutOfRange, s)
		}
		if n > math.MaxInt/s {
			return 0, fmt.Errorf("%w: combinations of %v overflow int", ErrOutOfRange, sizes)
		}
		n *= s
	}
	return n, nil
}

// NthCombination returns the digits of row index in a mixed-radix counter
// with the given sizes. Position 0 is most significant; the last position
// varies fastest.
func NthCombination(index int, sizes []int) ([]int, error) {
	total, err := Combinations(sizes)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= total {
		return nil, fmt.Errorf("%w: combination %d of %v", ErrOutOfRange, index, sizes)
	}
	digits := make([]int, len(sizes))
	for i := len(sizes) - 1; i >= 0; i-- {
		digits[i] = index % sizes[i]
		index /= sizes[i]
	}
	return digits, nil
}

// Odometer walks every combination in NthCombination order
type Odometer struct {
	sizes  []int
	digits []int
	done   bool
	primed bool
}

// NewOdometer creates an odometer positioned before the first combination
func NewOdometer(sizes []int) *Odometer {
	return &Odometer{
		sizes:  append([]int(nil), sizes...),
		digits: make([]int, len(sizes)),
		done:   slices.Contains(sizes, 0),
	}
}

// Next advances to the next combination. The returned slice is a copy.
func (o *Odometer) Next() ([]int, bool) {
	if o.done {
		return nil, false
	}
	if !o.primed {
		o.primed = true
		return append([]int(nil), o.digits...), true
	}

	// Increment the last digit, carrying leftward
	for i := len(o.digits) - 1; i >= 0; i-- {
		o.digits[i]++
		if o.digits[i] < o.sizes[i] {
			return append([]int(nil), o.digits...), true
		}
		o.digits[i] = 0
	}
	o.done = true
	return nil, false
}
