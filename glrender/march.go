package glrender

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/icosdf"
	"github.com/soypat/icosdf/gleval"
)

// RayState is a ray being sphere traced.
type RayState struct {
	Origin ms3.Vec
	Dir    ms3.Vec
	// T is the distance travelled along Dir.
	T float32
	// Steps is the number of field evaluations performed.
	Steps int
}

// At returns the point at distance t along the ray.
func (r RayState) At(t float32) ms3.Vec {
	return ms3.Add(r.Origin, ms3.Scale(t, r.Dir))
}

// Intersection is the result of tracing a ray. T is the distance travelled
// when tracing stopped. Rays that escape or run out of steps are misses.
type Intersection struct {
	T     float32
	Hit   bool
	Steps int
}

// Trace sphere traces a ray through sdf. Each step advances the ray by exactly
// the field value at its tip. Tracing stops with a hit when the field drops
// below cfg.HitEpsilon and with a miss when the ray travels beyond
// cfg.MaxDistance or cfg.MaxSteps evaluations are exhausted.
func Trace(sdf Distancer, origin, dir ms3.Vec, cfg icosdf.MarchConfig) Intersection {
	ray := RayState{Origin: origin, Dir: dir}
	for ray.Steps < cfg.MaxSteps {
		d := sdf.Distance(ray.At(ray.T))
		ray.Steps++
		if isect, done := advance(&ray, d, &cfg); done {
			return isect
		}
	}
	return Intersection{T: ray.T, Steps: ray.Steps}
}

// advance moves the ray forward by d and reports whether tracing is finished.
func advance(ray *RayState, d float32, cfg *icosdf.MarchConfig) (Intersection, bool) {
	if d < cfg.HitEpsilon {
		return Intersection{T: ray.T, Hit: true, Steps: ray.Steps}, true
	}
	ray.T += d
	if ray.T > cfg.MaxDistance || math32.IsNaN(d) {
		return Intersection{T: ray.T, Steps: ray.Steps}, true
	}
	if ray.Steps >= cfg.MaxSteps {
		return Intersection{T: ray.T, Steps: ray.Steps}, true
	}
	return Intersection{}, false
}

// Marcher sphere traces batches of rays through a [gleval.SDF3]. Every step
// evaluates the tips of all unfinished rays in one call and finished rays
// are compacted out of the batch. Results are identical to [Trace].
// A Marcher is not safe for concurrent use.
type Marcher struct {
	cfg    icosdf.MarchConfig
	active []int
	pos    []ms3.Vec
	dist   []float32
}

// NewMarcher returns a Marcher using the step budget and thresholds of cfg.
func NewMarcher(cfg icosdf.MarchConfig) (*Marcher, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	return &Marcher{cfg: cfg}, nil
}

// March traces rays through sdf and stores the results in dst. rays are
// modified in place and hold the final ray state on return. userData is
// passed through to sdf.
func (m *Marcher) March(sdf gleval.SDF3, rays []RayState, dst []Intersection, userData any) error {
	if len(rays) != len(dst) {
		return errors.New("length of rays must match length of intersections")
	} else if len(rays) == 0 {
		return nil
	}
	m.active = m.active[:0]
	for i := range rays {
		rays[i].T = 0
		rays[i].Steps = 0
		m.active = append(m.active, i)
	}
	for len(m.active) > 0 {
		n := len(m.active)
		m.pos = growVec(m.pos, n)
		m.dist = growFloat(m.dist, n)
		for j, idx := range m.active {
			m.pos[j] = rays[idx].At(rays[idx].T)
		}
		err := sdf.Evaluate(m.pos[:n], m.dist[:n], userData)
		if err != nil {
			return err
		}
		// Compact unfinished rays to the front of the active list.
		kept := m.active[:0]
		for j, idx := range m.active {
			ray := &rays[idx]
			ray.Steps++
			isect, done := advance(ray, m.dist[j], &m.cfg)
			if done {
				dst[idx] = isect
			} else {
				kept = append(kept, idx)
			}
		}
		m.active = kept
	}
	return nil
}

func growVec(buf []ms3.Vec, n int) []ms3.Vec {
	if cap(buf) < n {
		return make([]ms3.Vec, n)
	}
	return buf[:n]
}

func growFloat(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}
