// Package icosdfaux offers high level helpers to get pictures, animations and
// meshes of the icosahedral shell out quickly: configuration files, offline
// rendering to files and a live GPU preview window.
package icosdfaux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"time"

	math "github.com/chewxy/math32"
	"github.com/dustin/go-humanize"
	"github.com/soypat/icosdf/glbuild"
	"github.com/soypat/icosdf/gleval"
	"github.com/soypat/icosdf/glrender"
	"golang.org/x/image/draw"
)

// RenderConfig selects the outputs written by [Render]. Nil outputs are skipped.
type RenderConfig struct {
	// PNGOutput receives a still of the configured frame.
	PNGOutput io.Writer
	// GIFOutput receives a looping animation over one animation period.
	GIFOutput io.Writer
	// STLOutput receives a binary STL mesh of the resting shell.
	STLOutput io.Writer
	// GLSLOutput receives the fragment program used by the live preview.
	GLSLOutput io.Writer
	// SliceOutput receives a PNG of the distance field over the z=0 plane.
	SliceOutput io.Writer
	Silent      bool
}

// Render is an auxiliary function to get renders of the shell described by cfg
// written to the outputs in out. ctx is checked between frames.
func Render(ctx context.Context, cfg FileConfig, out RenderConfig) (err error) {
	if out.PNGOutput == nil && out.GIFOutput == nil && out.STLOutput == nil &&
		out.GLSLOutput == nil && out.SliceOutput == nil {
		return errors.New("Render requires output parameter in config")
	}
	log := func(args ...any) {
		if !out.Silent {
			fmt.Println(args...)
		}
	}
	err = cfg.Validate()
	if err != nil {
		return err
	}
	watch := stopwatch()
	pl, err := glrender.NewPipeline(cfg.Shell())
	if err != nil {
		return err
	}
	fp, err := cfg.Frame.Parameters()
	if err != nil {
		return err
	}
	log("building shell took", watch())

	if out.PNGOutput != nil || out.GIFOutput != nil {
		fr, err := newFrameRenderer(pl, cfg.Render)
		if err != nil {
			return err
		}
		if cfg.Render.UseGPU {
			log("using GPU\tᵍᵒᵗᵗᵃ ᵍᵒ ᶠᵃˢᵗ")
			terminate, err := gleval.Init1x1GLFW()
			if err != nil {
				return err
			}
			defer terminate()
		} else {
			log("using CPU")
		}
		if out.PNGOutput != nil {
			watch = stopwatch()
			img, err := fr.render(ctx, fp)
			if err != nil {
				return fmt.Errorf("rendering frame: %w", err)
			}
			cw := &countWriter{w: out.PNGOutput}
			err = png.Encode(cw, img)
			if err != nil {
				return fmt.Errorf("encoding PNG: %w", err)
			}
			log("wrote", filename(out.PNGOutput, "PNG"), humanize.Bytes(cw.n), "in", watch())
		}
		if out.GIFOutput != nil {
			watch = stopwatch()
			anim, err := fr.animate(ctx, fp, cfg.Shell().Animation.Period, log)
			if err != nil {
				return fmt.Errorf("rendering animation: %w", err)
			}
			cw := &countWriter{w: out.GIFOutput}
			err = anim.Encode(cw)
			if err != nil {
				return fmt.Errorf("encoding GIF: %w", err)
			}
			log("wrote", filename(out.GIFOutput, "GIF"), anim.Len(), "frames", humanize.Bytes(cw.n), "in", watch())
		}
		log("evaluated SDF", humanize.Comma(int64(fr.evaluations)), "times over", humanize.Comma(int64(fr.pixels)), "pixels")
	}

	if out.STLOutput != nil {
		watch = stopwatch()
		shell := pl.Shell()
		mesh, err := glrender.NewMeshRenderer(shell, shell.Bounds(), cfg.Render.MeshCells)
		if err != nil {
			return err
		}
		triangles, err := glrender.RenderAll(mesh, nil)
		if err != nil {
			return fmt.Errorf("rendering triangles: %w", err)
		}
		log("meshed", humanize.Comma(int64(len(triangles))), "triangles in", watch())
		watch = stopwatch()
		n, err := glrender.WriteBinarySTL(out.STLOutput, triangles)
		if err != nil {
			return fmt.Errorf("writing STL file: %w", err)
		}
		log("wrote", filename(out.STLOutput, "STL"), humanize.Bytes(uint64(n)), "in", watch())
	}

	if out.GLSLOutput != nil {
		watch = stopwatch()
		var buf bytes.Buffer
		_, err = glrender.WriteFragmentProgram(&buf, pl, glbuild.NewDefaultProgrammer())
		if err != nil {
			return fmt.Errorf("writing visual GLSL: %w", err)
		}
		_, err = out.GLSLOutput.Write(bytes.TrimSuffix(buf.Bytes(), []byte{0}))
		if err != nil {
			return err
		}
		log("wrote", filename(out.GLSLOutput, "GLSL visualization"), "in", watch())
	}

	if out.SliceOutput != nil {
		watch = stopwatch()
		side := cfg.Frame.Height
		img := image.NewRGBA(image.Rect(0, 0, side, side))
		bb := pl.Shell().Bounds()
		err = RenderSlice(img, pl.Shell(), SliceConfig{HalfSize: bb.Max.X})
		if err != nil {
			return err
		}
		err = png.Encode(out.SliceOutput, img)
		if err != nil {
			return fmt.Errorf("encoding slice PNG: %w", err)
		}
		log("wrote", filename(out.SliceOutput, "slice PNG"), "in", watch())
	}
	return nil
}

// UIConfig configures the live preview window opened by [UI].
type UIConfig struct {
	Width, Height int
	// Config is the shell and frame shown when ConfigFile is empty.
	Config FileConfig
	// ConfigFile is loaded at start and reloaded whenever it changes on disk.
	ConfigFile string
	// Context stops the preview when done. May be nil.
	Context context.Context
	Silent  bool
}

// UI opens a window rendering the animated shell on the GPU. The mouse wheel
// zooms the camera. UI must be called from the main OS thread and requires cgo.
func UI(cfg UIConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return errors.New("invalid window size")
	}
	if cfg.ConfigFile == "" {
		err := cfg.Config.Validate()
		if err != nil {
			return err
		}
	}
	return ui(cfg)
}

// frameRenderer renders supersampled, optionally captioned frames on the CPU
// or through a GPU compute program compiled per pose.
type frameRenderer struct {
	pl          *glrender.Pipeline
	opts        RenderOptions
	ir          *glrender.ImageRenderer
	programmer  *glbuild.Programmer
	evaluations uint64
	pixels      uint64
}

func newFrameRenderer(pl *glrender.Pipeline, opts RenderOptions) (*frameRenderer, error) {
	workers := opts.Workers
	if opts.UseGPU {
		workers = 1
	}
	ir, err := glrender.NewImageRenderer(pl, workers)
	if err != nil {
		return nil, err
	}
	fr := &frameRenderer{pl: pl, opts: opts, ir: ir}
	if opts.UseGPU {
		fr.programmer = glbuild.NewDefaultProgrammer()
	}
	return fr, nil
}

func (fr *frameRenderer) render(ctx context.Context, fp glrender.FrameParameters) (*image.RGBA, error) {
	posed := fr.pl.Pose(fp)
	var sdf gleval.SDF3 = posed
	if fr.programmer != nil {
		var source bytes.Buffer
		_, err := fr.programmer.WriteComputeSDF3(&source, posed)
		if err != nil {
			return nil, err
		}
		invocX, _, _ := fr.programmer.ComputeInvocations()
		compute, err := gleval.NewComputeGPUSDF3(&source, posed.Bounds(), gleval.ComputeConfig{InvocX: invocX})
		if err != nil {
			return nil, err
		}
		defer compute.Delete()
		sdf = compute
	}
	counter := &gleval.Counter{SDF: sdf}
	w, h := int(fp.Resolution.X), int(fp.Resolution.Y)
	ss := fr.opts.Supersample
	hi := image.NewRGBA(image.Rect(0, 0, w*ss, h*ss))
	err := fr.ir.Render(ctx, hi, fp, counter)
	if err != nil {
		return nil, err
	}
	fr.evaluations += counter.Evaluations()
	fr.pixels += uint64(len(hi.Pix) / 4)
	img := hi
	if ss > 1 {
		img = image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(img, img.Bounds(), hi, hi.Bounds(), draw.Src, nil)
	}
	if fr.opts.Caption {
		err = DrawCaption(img, fmt.Sprintf("t = %.2fs", fp.Time), color.White)
		if err != nil {
			return nil, err
		}
	}
	return img, nil
}

// animate renders fr.opts.Frames frames evenly spread over one period of
// animation time starting at fp's animation time.
func (fr *frameRenderer) animate(ctx context.Context, fp glrender.FrameParameters, period float32, log func(...any)) (*glrender.GIFAnimation, error) {
	n := fr.opts.Frames
	speed := fp.Speed
	if speed == 0 {
		speed = 1
	}
	step := period / float32(n) / math.Abs(speed)
	delay := max(1, int(math.Round(100*step)))
	start := fp.Time
	var anim glrender.GIFAnimation
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fp.Time = start + float32(i)*step
		fp.Speed = speed
		img, err := fr.render(ctx, fp)
		if err != nil {
			return nil, err
		}
		anim.AddFrame(img, delay)
		if (i+1)%max(1, n/4) == 0 {
			log("rendered", percentUint64(uint64(i+1), uint64(n)), "percent of frames")
		}
	}
	return &anim, nil
}

type countWriter struct {
	w io.Writer
	n uint64
}

func (cw *countWriter) Write(b []byte) (int, error) {
	n, err := cw.w.Write(b)
	cw.n += uint64(n)
	return n, err
}

func filename(w io.Writer, fallback string) string {
	if fp, ok := w.(*os.File); ok {
		return fp.Name()
	}
	return fallback
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
