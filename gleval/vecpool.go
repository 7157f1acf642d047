package gleval

import (
	"errors"
	"fmt"
	"slices"

	"github.com/soypat/geometry/ms3"
)

// VecPool stores reusable scratch buffers for SDF evaluation. Evaluators
// acquire buffers for intermediate results and release them when done.
// A VecPool is not safe for concurrent use: give each goroutine its own.
type VecPool struct {
	V3    bufPool[ms3.Vec]
	Float bufPool[float32]
}

var errNoVecPool = errors.New("VecPool not found in userData")

// GetVecPool extracts a VecPool from userData. userData may be a *VecPool or
// implement a VecPool() *VecPool method.
func GetVecPool(userData any) (*VecPool, error) {
	switch v := userData.(type) {
	case *VecPool:
		if v == nil {
			return nil, errNoVecPool
		}
		return v, nil
	case interface{ VecPool() *VecPool }:
		vp := v.VecPool()
		if vp == nil {
			return nil, errNoVecPool
		}
		return vp, nil
	}
	return nil, errNoVecPool
}

// AssertAllReleased returns an error if any buffer was acquired and not released.
func (vp *VecPool) AssertAllReleased() error {
	err := vp.V3.assertAllReleased()
	if err != nil {
		return fmt.Errorf("V3 pool: %w", err)
	}
	err = vp.Float.assertAllReleased()
	if err != nil {
		return fmt.Errorf("Float pool: %w", err)
	}
	return nil
}

type bufPool[T any] struct {
	bufs     [][]T
	acquired []bool
}

// Acquire returns a buffer of length n. Contents are not zeroed.
func (bp *bufPool[T]) Acquire(n int) []T {
	for i, buf := range bp.bufs {
		if !bp.acquired[i] && cap(buf) >= n {
			bp.acquired[i] = true
			return buf[:n]
		}
	}
	buf := make([]T, n, max(n, 1))
	bp.bufs = append(bp.bufs, buf)
	bp.acquired = append(bp.acquired, true)
	return buf
}

// Release returns a buffer previously obtained with Acquire. Releasing
// a buffer that was not acquired from the pool panics.
func (bp *bufPool[T]) Release(buf []T) {
	if cap(buf) == 0 {
		panic("release of zero capacity buffer")
	}
	idx := slices.IndexFunc(bp.bufs, func(b []T) bool {
		return cap(b) == cap(buf) && &b[:1][0] == &buf[:1][0]
	})
	if idx < 0 {
		panic("release of buffer not acquired from pool")
	} else if !bp.acquired[idx] {
		panic("double release of buffer")
	}
	bp.acquired[idx] = false
}

func (bp *bufPool[T]) assertAllReleased() error {
	for i, acquired := range bp.acquired {
		if acquired {
			return fmt.Errorf("buffer %d of length %d not released", i, len(bp.bufs[i]))
		}
	}
	return nil
}
