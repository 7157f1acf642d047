package icosdf_test

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/icosdf"
	"github.com/soypat/icosdf/gleval"
)

func randVec(rng *rand.Rand, half float32) ms3.Vec {
	return ms3.Vec{
		X: half * (2*rng.Float32() - 1),
		Y: half * (2*rng.Float32() - 1),
		Z: half * (2*rng.Float32() - 1),
	}
}

func newShell(t *testing.T) *icosdf.Shell {
	t.Helper()
	var bld icosdf.Builder
	s := bld.NewShell(icosdf.DefaultConfig().Shape)
	if err := bld.Err(); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestBasis(t *testing.T) {
	b := icosdf.ComputeBasis()
	if b != *icosdf.DefaultBasis() {
		t.Fatal("default basis differs from computed basis")
	}
	if icosdf.DefaultBasis() != icosdf.DefaultBasis() {
		t.Error("default basis not cached")
	}
	for i, v := range b.Vectors() {
		if math32.Abs(ms3.Norm(v)-1) > 1e-6 {
			t.Errorf("basis vector %d not unit length: %v", i, ms3.Norm(v))
		}
	}
	// Apex is the vertex mirrored across the first fold plane.
	d := ms3.Dot(b.Vertex, b.Fold[0])
	want := ms3.Sub(b.Vertex, ms3.Scale(2*d, b.Fold[0]))
	if ms3.Norm(ms3.Sub(want, b.Apex)) > 1e-6 {
		t.Error("apex is not the mirrored vertex", b.Apex, want)
	}
}

func TestReflect(t *testing.T) {
	n := ms3.Unit(ms3.Vec{X: 1, Y: 1})
	p, side := icosdf.Reflect(ms3.Vec{X: -1, Z: 3}, n, 0)
	if side != -1 {
		t.Error("want side -1, got", side)
	}
	if ms3.Norm(ms3.Sub(p, ms3.Vec{Y: 1, Z: 3})) > 1e-6 {
		t.Error("unexpected mirrored point", p)
	}
	onPlane := ms3.Vec{X: 1, Y: -1, Z: 2}
	p, side = icosdf.Reflect(onPlane, n, 0)
	if side != 1 || p != onPlane {
		t.Error("point on plane must be unchanged with side +1", p, side)
	}
	p, side = icosdf.Reflect(ms3.Vec{X: 1}, ms3.Vec{X: 1}, -2)
	if side != -1 || ms3.Norm(ms3.Sub(p, ms3.Vec{X: 3})) > 1e-6 {
		t.Error("offset plane reflection failed", p, side)
	}
}

func TestFold(t *testing.T) {
	b := icosdf.DefaultBasis()
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		p := randVec(rng, 2)
		q, region := icosdf.Fold(p, 0, b)
		if region != 0 {
			t.Fatal("level 0 fold must report region 0")
		}
		if math32.Abs(ms3.Norm(q)-ms3.Norm(p)) > 1e-5 {
			t.Fatal("fold must preserve distance to origin", p, q)
		}
		q2, _ := icosdf.Fold(q, 0, b)
		if ms3.Norm(ms3.Sub(q, q2)) > 1e-5 {
			t.Fatal("level 0 fold not idempotent", q, q2)
		}
		if q.X < 0 || q.Y < 0 || ms3.Dot(q, b.Corner) < -1e-5 {
			t.Fatal("folded point outside fundamental domain", q)
		}
		q1, region := icosdf.Fold(p, 1, b)
		if ms3.Dot(q1, b.Fold[0]) < -1e-5 {
			t.Fatal("level 1 fold left point on negative side of fold plane", q1)
		}
		if (region == 1) != (ms3.Dot(q, b.Fold[0]) < 0) {
			t.Fatal("region does not match side of fold plane")
		}
		for _, lvl := range [][2]int{{-1, 0}, {5, 2}} {
			got, gr := icosdf.Fold(p, lvl[0], b)
			want, wr := icosdf.Fold(p, lvl[1], b)
			if got != want || gr != wr {
				t.Fatalf("level %d must clamp to %d", lvl[0], lvl[1])
			}
		}
	}
}

func TestShellSymmetry(t *testing.T) {
	const tol = 1e-5
	s := newShell(t)
	b := s.Basis()
	rng := rand.New(rand.NewSource(2))
	const n = 4000
	var mismatches int
	for i := 0; i < n; i++ {
		p := randVec(rng, 1.5)
		d := s.Distance(p)
		nc := ms3.Dot(p, b.Corner)
		for _, g := range []ms3.Vec{
			{X: -p.X, Y: p.Y, Z: p.Z},
			{X: p.X, Y: -p.Y, Z: -p.Z},
			ms3.Scale(-1, p),
			ms3.Sub(p, ms3.Scale(2*nc, b.Corner)),
		} {
			if math32.Abs(s.Distance(g)-d) > tol {
				mismatches++
			}
		}
	}
	if mismatches > 0 {
		t.Errorf("field not symmetric under icosahedral group: %d mismatches", mismatches)
	}
}

func TestShellConservative(t *testing.T) {
	s := newShell(t)
	rng := rand.New(rand.NewSource(3))
	const step = 0.01
	for i := 0; i < 20000; i++ {
		p := randVec(rng, 2)
		if i%2 == 0 {
			// Concentrate samples near the surface.
			p = ms3.Scale(0.9+rng.Float32(), ms3.Unit(p))
		}
		dir := ms3.Unit(randVec(rng, 1))
		got := math32.Abs(s.Distance(ms3.Add(p, ms3.Scale(step, dir))) - s.Distance(p))
		if got > step*1.001+1e-5 {
			t.Fatalf("field changes faster than distance at %v: %g over %g", p, got, step)
		}
	}
}

func TestShellDeterministic(t *testing.T) {
	s1 := newShell(t)
	s2 := newShell(t)
	rng := rand.New(rand.NewSource(4))
	pos := make([]ms3.Vec, 512)
	for i := range pos {
		pos[i] = randVec(rng, 2)
	}
	dist := make([]float32, len(pos))
	err := s1.Evaluate(pos, dist, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range pos {
		d := s2.Distance(p)
		if d != dist[i] || d != s1.Distance(p) {
			t.Fatalf("non deterministic evaluation at %v: %g vs %g", p, d, dist[i])
		}
		if math32.IsNaN(d) {
			t.Fatal("NaN distance at", p)
		}
	}
	if err = s1.Evaluate(pos, dist[1:], nil); err == nil {
		t.Error("expected error on buffer length mismatch")
	}
}

func TestShellShape(t *testing.T) {
	s := newShell(t)
	cfg := s.Config()
	if d := s.Distance(ms3.Vec{}); d <= 0 {
		t.Error("hollow center must be outside the solid, got", d)
	}
	bb := s.Bounds().ScaleCentered(ms3.Vec{X: 1.01, Y: 1.01, Z: 1.01})
	for i := 0; i < 8; i++ {
		corner := bb.Min
		if i&1 != 0 {
			corner.X = bb.Max.X
		}
		if i&2 != 0 {
			corner.Y = bb.Max.Y
		}
		if i&4 != 0 {
			corner.Z = bb.Max.Z
		}
		if d := s.Distance(corner); d <= 0 {
			t.Error("bounding box corner inside shell", corner, d)
		}
	}
	// Edge and face spike tips reach their configured height along their
	// axes. The apex axis lies outside the level 1 fold domain.
	b := s.Basis()
	for i, axis := range []ms3.Vec{b.Edge, b.Face} {
		h := cfg.SpikeHeights[i]
		if d := s.Distance(ms3.Scale(h+0.05, axis)); d <= 0 {
			t.Errorf("spike %d extends beyond its height", i)
		}
		if d := s.Distance(ms3.Scale(h-0.05, axis)); d >= 0 {
			t.Errorf("spike %d shorter than its height", i)
		}
	}
}

func TestShellPerforated(t *testing.T) {
	s := newShell(t)
	cfg := s.Config()
	mid := (cfg.SphereRadius + cfg.InnerRadius) / 2
	rng := rand.New(rand.NewSource(9))
	const n = 4000
	var open, blocked int
	for i := 0; i < n; i++ {
		dir := ms3.Unit(ms3.Vec{X: float32(rng.NormFloat64()), Y: float32(rng.NormFloat64()), Z: float32(rng.NormFloat64())})
		if s.Distance(ms3.Scale(mid, dir)) <= 0 {
			continue
		}
		open++
		// Window walls are radial so a hole cuts through the whole thickness.
		inner := s.Distance(ms3.Scale(cfg.InnerRadius+0.002, dir))
		outer := s.Distance(ms3.Scale(cfg.SphereRadius-0.002, dir))
		if inner <= 0 || outer <= 0 {
			blocked++
		}
	}
	frac := float32(open) / n
	if frac < 0.3 || frac > 0.47 {
		t.Errorf("want holes over 30%% to 47%% of the shell, got %.1f%%", 100*frac)
	}
	if blocked > open/100 {
		t.Errorf("%d of %d holes do not cut through the shell", blocked, open)
	}
}

func TestAnimationPhase(t *testing.T) {
	for _, test := range []struct {
		time, speed, want float32
	}{
		{0, 1, 0},
		{1.5, 1, 1.5},
		{5, 1, 1},
		{4, 1, 0},
		{8, 0.5, 0},
		{-1, 1, 3},
		{3, 2, 2},
		{math32.NaN(), 1, 0},
	} {
		got := icosdf.AnimationPhase(test.time, test.speed, 4)
		if math32.Abs(got-test.want) > 1e-6 {
			t.Errorf("phase(%g*%g): want %g, got %g", test.time, test.speed, test.want, got)
		}
		if got < 0 || got >= 4 {
			t.Errorf("phase %g outside [0, 4)", got)
		}
	}
	if got := icosdf.AnimationPhase(3.9999999, 1, 4); got >= 4 {
		t.Error("phase must stay below period, got", got)
	}
}

func TestSpinRotation(t *testing.T) {
	anim := icosdf.DefaultConfig().Animation
	b := icosdf.DefaultBasis()
	for _, phase := range []float32{0, 0.25, 1, 2.7, 3.99} {
		r := icosdf.Spin(anim, b, phase)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				want := float32(0)
				if i == j {
					want = 1
				}
				if math32.Abs(ms3.Dot(r.VecCol(i), r.VecCol(j))-want) > 1e-5 {
					t.Fatalf("phase %g: rotation columns %d,%d not orthonormal", phase, i, j)
				}
			}
		}
		if det := r.Determinant(); math32.Abs(det-1) > 1e-5 {
			t.Fatalf("phase %g: not a proper rotation, det=%g", phase, det)
		}
		// The spin axis is the rotated face direction, so the fixed part of
		// the pose must map onto the same points for any phase.
		rest := icosdf.Spin(anim, b, 0)
		spin := ms3.Rotation(anim.SpinDegrees*math32.Pi/180*phase, b.Face)
		for j := 0; j < 3; j++ {
			want := spin.Rotate(rest.VecCol(j))
			if got := r.VecCol(j); ms3.Norm(ms3.Sub(got, want)) > 1e-5 {
				t.Fatalf("phase %g: column %d got %v want %v", phase, j, got, want)
			}
		}
	}
}

func TestAnimationWrapContinuity(t *testing.T) {
	const tol = 2e-4
	s := newShell(t)
	anim := icosdf.DefaultConfig().Animation
	var bld icosdf.Builder
	rest := bld.Animate(s, anim, 0)
	rng := rand.New(rand.NewSource(5))
	for _, animTime := range []float32{1, 2, 3, 3.9999999, 4, 8, 12.0000001} {
		posed := bld.Animate(s, anim, animTime)
		for i := 0; i < 500; i++ {
			p := randVec(rng, 1.5)
			want := rest.Distance(p)
			got := posed.Distance(p)
			if math32.Abs(got-want) > tol {
				t.Fatalf("time %g: pose differs from rest at %v: %g vs %g", animTime, p, got, want)
			}
		}
	}
	// Non integer phases do move the shell.
	half := bld.Animate(s, anim, 0.5)
	var moved bool
	for i := 0; i < 200 && !moved; i++ {
		p := randVec(rng, 1.5)
		moved = math32.Abs(half.Distance(p)-rest.Distance(p)) > 1e-2
	}
	if !moved {
		t.Error("half phase pose identical to rest pose")
	}
	if err := bld.Err(); err != nil {
		t.Fatal(err)
	}
}

func TestAnimatedEvaluate(t *testing.T) {
	s := newShell(t)
	var bld icosdf.Builder
	posed := bld.Animate(s, icosdf.DefaultConfig().Animation, 1.3)
	rng := rand.New(rand.NewSource(6))
	pos := make([]ms3.Vec, 256)
	for i := range pos {
		pos[i] = randVec(rng, 2)
	}
	dist := make([]float32, len(pos))
	if err := posed.Evaluate(pos, dist, nil); err == nil {
		t.Error("expected error without VecPool")
	}
	var vp gleval.VecPool
	if err := posed.Evaluate(pos, dist, &vp); err != nil {
		t.Fatal(err)
	}
	for i, p := range pos {
		if dist[i] != posed.Distance(p) {
			t.Fatal("batched evaluation differs from Distance at", p)
		}
	}
	if err := vp.AssertAllReleased(); err != nil {
		t.Error(err)
	}
}

func TestBuilderErrors(t *testing.T) {
	bad := icosdf.DefaultConfig().Shape
	bad.InnerRadius = 2
	bld := icosdf.Builder{NoDimensionPanic: true}
	s := bld.NewShell(bad)
	if s == nil {
		t.Error("expecting non-nil shape")
	}
	if bld.Err() == nil {
		t.Error("expected accumulated error for invalid shell")
	}
	bld = icosdf.Builder{NoDimensionPanic: true}
	bld.Animate(newShell(t), icosdf.DefaultConfig().Animation, math32.Inf(1))
	if bld.Err() == nil {
		t.Error("expected error for infinite animation time")
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic without NoDimensionPanic")
		}
	}()
	var panicky icosdf.Builder
	panicky.NewShell(bad)
}

func TestConfigValidate(t *testing.T) {
	if err := icosdf.DefaultConfig().Validate(); err != nil {
		t.Fatal("default config invalid:", err)
	}
	for name, mutate := range map[string]func(*icosdf.Config){
		"fold level":     func(c *icosdf.Config) { c.Shape.FoldLevel = 3 },
		"radii":          func(c *icosdf.Config) { c.Shape.InnerRadius = c.Shape.SphereRadius },
		"spike height":   func(c *icosdf.Config) { c.Shape.SpikeHeights[1] = 0 },
		"blend":          func(c *icosdf.Config) { c.Shape.FinalBlend = 0 },
		"hole clip":      func(c *icosdf.Config) { c.Shape.HoleClip = 0.5 },
		"period":         func(c *icosdf.Config) { c.Animation.Period = 0 },
		"steps":          func(c *icosdf.Config) { c.March.MaxSteps = 0 },
		"hit epsilon":    func(c *icosdf.Config) { c.March.HitEpsilon = -1 },
		"max distance":   func(c *icosdf.Config) { c.March.MaxDistance = 0 },
		"light":          func(c *icosdf.Config) { c.Shading.LightDir = ms3.Vec{X: 2} },
		"shadow range":   func(c *icosdf.Config) { c.Shading.ShadowTMax = c.Shading.ShadowTMin },
		"ao samples":     func(c *icosdf.Config) { c.Shading.AOSamples = 1 },
		"gamma":          func(c *icosdf.Config) { c.Shading.Gamma = 0 },
		"camera up":      func(c *icosdf.Config) { c.Camera.Up = ms3.Vec{} },
		"camera focal":   func(c *icosdf.Config) { c.Camera.FocalLength = 0 },
		"normal epsilon": func(c *icosdf.Config) { c.Shading.NormalEpsilon = 0 },
	} {
		cfg := icosdf.DefaultConfig()
		mutate(&cfg)
		if cfg.Validate() == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
