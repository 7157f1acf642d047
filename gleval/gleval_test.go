package gleval_test

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/icosdf/gleval"
)

type sphere struct{ r float32 }

func (s sphere) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	for i, p := range pos {
		dist[i] = ms3.Norm(p) - s.r
	}
	return nil
}

func (s sphere) Bounds() ms3.Box {
	return ms3.Box{Min: ms3.Vec{X: -s.r, Y: -s.r, Z: -s.r}, Max: ms3.Vec{X: s.r, Y: s.r, Z: s.r}}
}

func TestVecPool(t *testing.T) {
	var vp gleval.VecPool
	a := vp.V3.Acquire(16)
	b := vp.V3.Acquire(8)
	if len(a) != 16 || len(b) != 8 {
		t.Fatal("unexpected buffer lengths", len(a), len(b))
	}
	if &a[0] == &b[0] {
		t.Fatal("acquired the same buffer twice")
	}
	if vp.AssertAllReleased() == nil {
		t.Error("expected error with acquired buffers")
	}
	vp.V3.Release(a)
	// A smaller request reuses the released buffer.
	c := vp.V3.Acquire(4)
	if &c[0] != &a[0] {
		t.Error("released buffer was not reused")
	}
	vp.V3.Release(b)
	vp.V3.Release(c)
	f := vp.Float.Acquire(3)
	vp.Float.Release(f)
	if err := vp.AssertAllReleased(); err != nil {
		t.Error(err)
	}
	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic on double release")
			}
		}()
		vp.Float.Release(f)
	}()
}

func TestGetVecPool(t *testing.T) {
	var vp gleval.VecPool
	got, err := gleval.GetVecPool(&vp)
	if err != nil || got != &vp {
		t.Error("expected VecPool back", err)
	}
	for _, bad := range []any{nil, (*gleval.VecPool)(nil), 1, "vp"} {
		_, err = gleval.GetVecPool(bad)
		if err == nil {
			t.Errorf("expected error for %T", bad)
		}
	}
}

func TestNormalsCentralDiff(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := sphere{r: 1}
	const n = 128
	pos := make([]ms3.Vec, n)
	want := make([]ms3.Vec, n)
	for i := range pos {
		want[i] = ms3.Unit(ms3.Vec{X: rng.Float32() - 0.5, Y: rng.Float32() - 0.5, Z: rng.Float32() - 0.5})
		pos[i] = ms3.Scale(0.5+rng.Float32(), want[i])
	}
	normals := make([]ms3.Vec, n)
	var vp gleval.VecPool
	err := gleval.NormalsCentralDiff(s, pos, normals, 2e-3, &vp)
	if err != nil {
		t.Fatal(err)
	}
	for i := range normals {
		got := ms3.Unit(normals[i])
		if ms3.Norm(ms3.Sub(got, want[i])) > 1e-3 {
			t.Errorf("normal %d: want %v, got %v", i, want[i], got)
		}
	}
	if err = vp.AssertAllReleased(); err != nil {
		t.Error(err)
	}
	if gleval.NormalsCentralDiff(s, pos, normals[1:], 2e-3, &vp) == nil {
		t.Error("expected length mismatch error")
	}
	if gleval.NormalsCentralDiff(s, pos, normals, 0, &vp) == nil {
		t.Error("expected invalid step error")
	}
	if gleval.NormalsCentralDiff(s, pos, normals, 2e-3, nil) == nil {
		t.Error("expected missing VecPool error")
	}
}

func TestCounter(t *testing.T) {
	c := &gleval.Counter{SDF: sphere{r: 2}}
	const workers, batches, batchSize = 4, 10, 32
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			pos := make([]ms3.Vec, batchSize)
			dist := make([]float32, batchSize)
			for i := 0; i < batches; i++ {
				if err := c.Evaluate(pos, dist, nil); err != nil {
					t.Error(err)
					return
				}
				if math32.Abs(dist[0]+2) > 1e-6 {
					t.Error("unexpected distance", dist[0])
					return
				}
			}
		}()
	}
	wg.Wait()
	if got := c.Evaluations(); got != workers*batches*batchSize {
		t.Errorf("want %d evaluations, got %d", workers*batches*batchSize, got)
	}
	if c.Evaluate(make([]ms3.Vec, 2), make([]float32, 1), nil) == nil {
		t.Error("expected length mismatch error")
	}
	if c.Evaluations() != workers*batches*batchSize {
		t.Error("failed evaluation must not be counted")
	}
	if c.Bounds() != (sphere{r: 2}).Bounds() {
		t.Error("bounds not forwarded")
	}
}
