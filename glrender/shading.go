package glrender

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/icosdf"
	"github.com/soypat/icosdf/gleval"
)

// ShadingContext describes a surface point being lit. Reflect and Basis are
// not read by the lighting recipe.
type ShadingContext struct {
	Pos    ms3.Vec
	Normal ms3.Vec
	// Reflect is View reflected about Normal.
	Reflect ms3.Vec
	// View is the direction of the incoming camera ray.
	View  ms3.Vec
	Basis *icosdf.Basis
	// Phase is the animation time wrapped into the animation period.
	Phase float32
}

// Normal estimates the unit surface normal at p with central differences
// of step eps on each axis.
func Normal(sdf Distancer, p ms3.Vec, eps float32) ms3.Vec {
	var n ms3.Vec
	for dim, h := range [3]ms3.Vec{{X: eps}, {Y: eps}, {Z: eps}} {
		d := sdf.Distance(ms3.Add(p, h)) - sdf.Distance(ms3.Sub(p, h))
		switch dim {
		case 0:
			n.X = d
		case 1:
			n.Y = d
		case 2:
			n.Z = d
		}
	}
	return ms3.Unit(n)
}

// SoftShadow marches from origin towards the light along dir and returns
// the fraction of light reaching origin in [0, 1]. Near misses darken the
// result proportionally to how close the march passed to the surface.
func SoftShadow(sdf Distancer, origin, dir ms3.Vec, tmin, tmax float32, cfg *icosdf.ShadingConfig) float32 {
	res := float32(1)
	t := tmin
	for i := 0; i < cfg.ShadowSteps; i++ {
		h := sdf.Distance(ms3.Add(origin, ms3.Scale(t, dir)))
		var done bool
		res, t, done = shadowStep(res, t, h, tmax, cfg)
		if done {
			break
		}
	}
	return clampf(res, 0, 1)
}

func shadowStep(res, t, h, tmax float32, cfg *icosdf.ShadingConfig) (float32, float32, bool) {
	res = math32.Min(res, cfg.ShadowSharpness*h/t)
	t += clampf(h, cfg.ShadowMinStep, cfg.ShadowMaxStep)
	return res, t, h < cfg.ShadowEpsilon || t > tmax
}

// AmbientOcclusion samples the field along the normal and returns 1 for an
// unoccluded point, decreasing towards 0 as nearby geometry gets closer.
func AmbientOcclusion(sdf Distancer, pos, normal ms3.Vec, cfg *icosdf.ShadingConfig) float32 {
	var occ float32
	weight := float32(1)
	for i := 0; i < cfg.AOSamples; i++ {
		hr := aoRadius(i, cfg)
		d := sdf.Distance(ms3.Add(pos, ms3.Scale(hr, normal)))
		occ += -(d - hr) * weight
		weight *= cfg.AODecay
	}
	return clampf(1-cfg.AOScale*occ, 0, 1)
}

func aoRadius(i int, cfg *icosdf.ShadingConfig) float32 {
	return cfg.AOMinRadius + (cfg.AOMaxRadius-cfg.AOMinRadius)*float32(i)/float32(cfg.AOSamples-1)
}

// Lighting returns the linear color of a lit surface point.
func Lighting(sdf Distancer, ctx ShadingContext, tint ms3.Vec, cfg *icosdf.ShadingConfig) ms3.Vec {
	shadow := SoftShadow(sdf, ctx.Pos, cfg.LightDir, cfg.ShadowTMin, cfg.ShadowTMax, cfg)
	occ := AmbientOcclusion(sdf, ctx.Pos, ctx.Normal, cfg)
	return composeLighting(ctx, tint, shadow, occ, cfg)
}

// composeLighting sums the diffuse, ambient, backlight and Fresnel terms.
func composeLighting(ctx ShadingContext, tint ms3.Vec, shadow, occ float32, cfg *icosdf.ShadingConfig) ms3.Vec {
	L := cfg.LightDir
	n := ctx.Normal
	dif := clampf(ms3.Dot(n, L), 0, 1) * shadow
	amb := clampf(0.5+0.5*n.Y, 0, 1)
	back := ms3.Unit(ms3.Vec{X: -L.X, Z: -L.Z})
	bac := clampf(ms3.Dot(n, back), 0, 1) * clampf(1-ctx.Pos.Y, 0, 1)
	fre := clampf(1+ms3.Dot(n, ctx.View), 0, 1)
	fre *= fre

	col := ms3.Scale(cfg.DiffuseWeight*dif, tint)
	col = ms3.Add(col, ms3.Scale(cfg.AmbientWeight*amb*occ, cfg.AmbientColor))
	col = ms3.Add(col, ms3.Scale(cfg.BackWeight*bac*occ, cfg.BackColor))
	f := cfg.FresnelWeight * fre * occ
	col = ms3.Add(col, ms3.Vec{X: f, Y: f, Z: f})
	return ms3.Scale(cfg.Albedo, col)
}

// BatchShading computes normals, soft shadows and ambient occlusion for many
// surface points at once through a [gleval.SDF3]. Results match [Normal],
// [SoftShadow] and [AmbientOcclusion]. A BatchShading is not safe for concurrent use.
type BatchShading struct {
	cfg    icosdf.ShadingConfig
	active []int
	t      []float32
	pos    []ms3.Vec
	dist   []float32
}

// NewBatchShading returns a BatchShading for the recipe in cfg.
func NewBatchShading(cfg icosdf.ShadingConfig) (*BatchShading, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	return &BatchShading{cfg: cfg}, nil
}

// Normals stores the unit surface normals at pos in dst. userData must
// provide a [gleval.VecPool].
func (bs *BatchShading) Normals(sdf gleval.SDF3, pos, dst []ms3.Vec, userData any) error {
	if len(pos) == 0 && len(dst) == 0 {
		return nil
	}
	err := gleval.NormalsCentralDiff(sdf, pos, dst, 2*bs.cfg.NormalEpsilon, userData)
	if err != nil {
		return err
	}
	for i, n := range dst {
		dst[i] = ms3.Unit(n)
	}
	return nil
}

// SoftShadows stores the light fraction reaching each of origins along the light direction in dst.
func (bs *BatchShading) SoftShadows(sdf gleval.SDF3, origins []ms3.Vec, dst []float32, userData any) error {
	if len(origins) != len(dst) {
		return errors.New("length of origins must match length of shadows")
	}
	cfg := &bs.cfg
	bs.t = growFloat(bs.t, len(origins))
	bs.active = bs.active[:0]
	for i := range origins {
		dst[i] = 1
		bs.t[i] = cfg.ShadowTMin
		bs.active = append(bs.active, i)
	}
	for step := 0; step < cfg.ShadowSteps && len(bs.active) > 0; step++ {
		n := len(bs.active)
		bs.pos = growVec(bs.pos, n)
		bs.dist = growFloat(bs.dist, n)
		for j, idx := range bs.active {
			bs.pos[j] = ms3.Add(origins[idx], ms3.Scale(bs.t[idx], cfg.LightDir))
		}
		err := sdf.Evaluate(bs.pos[:n], bs.dist[:n], userData)
		if err != nil {
			return err
		}
		kept := bs.active[:0]
		for j, idx := range bs.active {
			var done bool
			dst[idx], bs.t[idx], done = shadowStep(dst[idx], bs.t[idx], bs.dist[j], cfg.ShadowTMax, cfg)
			if !done {
				kept = append(kept, idx)
			}
		}
		bs.active = kept
	}
	for i := range dst {
		dst[i] = clampf(dst[i], 0, 1)
	}
	return nil
}

// AmbientOcclusions stores the ambient occlusion factor of each point in dst.
func (bs *BatchShading) AmbientOcclusions(sdf gleval.SDF3, pos, normals []ms3.Vec, dst []float32, userData any) error {
	if len(pos) != len(normals) || len(pos) != len(dst) {
		return errors.New("length of positions, normals and occlusions must match")
	} else if len(pos) == 0 {
		return nil
	}
	cfg := &bs.cfg
	n := len(pos)
	bs.pos = growVec(bs.pos, n)
	bs.dist = growFloat(bs.dist, n)
	bs.t = growFloat(bs.t, n) // Holds the running weight.
	for i := range dst {
		dst[i] = 0
		bs.t[i] = 1
	}
	for s := 0; s < cfg.AOSamples; s++ {
		hr := aoRadius(s, cfg)
		for i, p := range pos {
			bs.pos[i] = ms3.Add(p, ms3.Scale(hr, normals[i]))
		}
		err := sdf.Evaluate(bs.pos[:n], bs.dist[:n], userData)
		if err != nil {
			return err
		}
		for i, d := range bs.dist[:n] {
			dst[i] += -(d - hr) * bs.t[i]
			bs.t[i] *= cfg.AODecay
		}
	}
	for i, occ := range dst {
		dst[i] = clampf(1-cfg.AOScale*occ, 0, 1)
	}
	return nil
}
