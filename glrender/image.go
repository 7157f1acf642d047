package glrender

import (
	"context"
	"errors"
	"image"
	"runtime"
	"sync"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/icosdf/gleval"
)

// ImageRenderer renders frames of a [Pipeline] into images. Rows are
// distributed among worker goroutines that trace and shade a full row per
// batch of SDF evaluations.
type ImageRenderer struct {
	pl      *Pipeline
	workers int
}

// NewImageRenderer returns an ImageRenderer running the given number of
// workers. A non-positive workers value uses one worker per CPU.
func NewImageRenderer(pl *Pipeline, workers int) (*ImageRenderer, error) {
	if pl == nil {
		return nil, errors.New("nil pipeline")
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &ImageRenderer{pl: pl, workers: workers}, nil
}

// Render renders frame fp into img. The resolution of fp is replaced by the
// size of img. sdf must evaluate the shell posed for fp, see [Pipeline.Pose].
// A nil sdf renders with the CPU. SDFs evaluated on the GPU are bound to the
// calling goroutine's GL context, so they are always rendered by a single worker.
func (ir *ImageRenderer) Render(ctx context.Context, img *image.RGBA, fp FrameParameters, sdf gleval.SDF3) error {
	bounds := img.Bounds()
	fp.Resolution = ms2.Vec{X: float32(bounds.Dx()), Y: float32(bounds.Dy())}
	frame := ir.pl.Frame(fp)
	if sdf == nil {
		sdf = frame.Posed()
	}
	workers := min(ir.workers, max(bounds.Dy(), 1))
	if _, isGPU := sdf.(*gleval.SDF3Compute); isGPU {
		workers = 1
	}
	if workers == 1 {
		return newRowTracer(frame, bounds.Dx()).renderRows(ctx, sdf, img, 0, 1)
	}
	var wg sync.WaitGroup
	errs := make([]error, workers)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(wid int) {
			defer wg.Done()
			errs[wid] = newRowTracer(frame, bounds.Dx()).renderRows(ctx, sdf, img, wid, workers)
		}(w)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// rowTracer holds the per worker buffers to trace and shade a row of pixels.
type rowTracer struct {
	frame   *Frame
	vp      gleval.VecPool
	marcher Marcher
	shading BatchShading

	rays    []RayState
	isect   []Intersection
	hitIdx  []int
	hitPos  []ms3.Vec
	normals []ms3.Vec
	shadows []float32
	occ     []float32
}

func newRowTracer(frame *Frame, width int) *rowTracer {
	cfg := frame.p.cfg
	return &rowTracer{
		frame:   frame,
		marcher: Marcher{cfg: cfg.March},
		shading: BatchShading{cfg: cfg.Shading},
		rays:    make([]RayState, width),
		isect:   make([]Intersection, width),
	}
}

// renderRows renders rows start, start+stride, start+2*stride... of img.
func (rt *rowTracer) renderRows(ctx context.Context, sdf gleval.SDF3, img *image.RGBA, start, stride int) error {
	bounds := img.Bounds()
	for row := start; row < bounds.Dy(); row += stride {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := rt.renderRow(sdf, img, row)
		if err != nil {
			return err
		}
	}
	return nil
}

func (rt *rowTracer) renderRow(sdf gleval.SDF3, img *image.RGBA, row int) error {
	bounds := img.Bounds()
	fp := &rt.frame.params
	p := rt.frame.p
	cam := p.camera
	for i := range rt.rays {
		pixel := ms2.Vec{X: float32(i) + 0.5, Y: float32(row) + 0.5}
		ro, rd, ok := cam.BuildRay(pixel, fp.Resolution, fp.Zoom)
		if !ok {
			return errors.New("degenerate image resolution")
		}
		rt.rays[i] = RayState{Origin: ro, Dir: rd}
	}
	err := rt.marcher.March(sdf, rt.rays, rt.isect, &rt.vp)
	if err != nil {
		return err
	}

	rt.hitIdx = rt.hitIdx[:0]
	rt.hitPos = rt.hitPos[:0]
	for i, isect := range rt.isect {
		if isect.Hit {
			rt.hitIdx = append(rt.hitIdx, i)
			rt.hitPos = append(rt.hitPos, rt.rays[i].At(isect.T))
		}
	}
	nhit := len(rt.hitIdx)
	rt.normals = growVec(rt.normals, nhit)
	rt.shadows = growFloat(rt.shadows, nhit)
	rt.occ = growFloat(rt.occ, nhit)
	err = rt.shading.Normals(sdf, rt.hitPos, rt.normals, &rt.vp)
	if err != nil {
		return err
	}
	err = rt.shading.SoftShadows(sdf, rt.hitPos, rt.shadows, &rt.vp)
	if err != nil {
		return err
	}
	err = rt.shading.AmbientOcclusions(sdf, rt.hitPos, rt.normals, rt.occ, &rt.vp)
	if err != nil {
		return err
	}

	background := p.encode(p.cfg.Shading.Background).RGBA()
	y := bounds.Min.Y + row
	for i := range rt.isect {
		img.SetRGBA(bounds.Min.X+i, y, background)
	}
	tint := fp.tint()
	for j, i := range rt.hitIdx {
		ctx := rt.frame.ShadingContext(rt.hitPos[j], rt.normals[j], rt.rays[i].Dir)
		col := composeLighting(ctx, tint, rt.shadows[j], rt.occ[j], &p.cfg.Shading)
		img.SetRGBA(bounds.Min.X+i, y, p.encode(col).RGBA())
	}
	return nil
}
