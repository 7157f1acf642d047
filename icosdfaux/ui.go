//go:build !tinygo && cgo

package icosdfaux

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/icosdf/glbuild"
	"github.com/soypat/icosdf/glrender"
)

const quadVertexSource = `#version 460
layout(location = 0) in vec2 aPos;
out vec2 vTexCoord;
void main() {
    vTexCoord = aPos * 0.5 + 0.5;
    gl_Position = vec4(aPos, 0.0, 1.0);
}
` + "\x00"

// previewProgram is a compiled fragment program with its uniform locations.
type previewProgram struct {
	prog                         glgl.Program
	uColor, uResMouse, uTimeParm int32
}

func ui(cfg UIConfig) error {
	log := func(args ...any) {
		if !cfg.Silent {
			fmt.Println(args...)
		}
	}
	fc := cfg.Config
	if cfg.ConfigFile != "" {
		var err error
		fc, err = LoadConfigFile(cfg.ConfigFile)
		if err != nil {
			return err
		}
	}
	fp, err := fc.Frame.Parameters()
	if err != nil {
		return err
	}
	pl, err := glrender.NewPipeline(fc.Shell())
	if err != nil {
		return err
	}
	window, term, err := startGLFW(cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer term()
	pp, err := compilePreview(pl)
	if err != nil {
		return err
	}
	defer func() { pp.prog.Delete() }()

	// Define a quad covering the screen.
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	vertices := []float32{
		-1.0, -1.0,
		1.0, -1.0,
		-1.0, 1.0,
		-1.0, 1.0,
		1.0, -1.0,
		1.0, 1.0,
	}
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(vertices), gl.Ptr(vertices), gl.STATIC_DRAW)
	posAttrib, err := pp.prog.AttribLocation("aPos\x00")
	if err != nil {
		return err
	}
	gl.EnableVertexAttribArray(posAttrib)
	gl.VertexAttribPointer(posAttrib, 2, gl.FLOAT, false, 0, gl.PtrOffset(0))

	zoom := fp.Zoom
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		zoom = max(0.1, zoom-0.1*float32(yoff))
	})

	var reload <-chan struct{}
	if cfg.ConfigFile != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer watcher.Close()
		reload, err = watchConfig(watcher, cfg.ConfigFile, log)
		if err != nil {
			return err
		}
	}

	ctx := cfg.Context
	glfw.SetTime(float64(fp.Time))
	for !window.ShouldClose() {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		select {
		case <-reload:
			next, err := LoadConfigFile(cfg.ConfigFile)
			if err == nil {
				pp, fp, err = reloadPreview(pp, next, fp)
			}
			if err != nil {
				log("keeping previous config:", err)
			} else {
				log("reloaded", cfg.ConfigFile)
			}
		default:
		}
		width, height := window.GetFramebufferSize()
		mx, my := window.GetCursorPos()
		fp.Resolution = ms2.Vec{X: float32(width), Y: float32(height)}
		fp.SetCursor(float32(mx), float32(my))
		fp.Time = float32(glfw.GetTime())
		fp.Zoom = zoom

		gl.Viewport(0, 0, int32(width), int32(height))
		gl.ClearColor(0.0, 0.0, 0.0, 1.0)
		gl.Clear(gl.COLOR_BUFFER_BIT)
		pp.prog.Bind()
		u := fp.Uniforms()
		gl.Uniform4fv(pp.uColor, 1, &u[0][0])
		gl.Uniform4fv(pp.uResMouse, 1, &u[1][0])
		gl.Uniform4fv(pp.uTimeParm, 1, &u[2][0])
		gl.BindVertexArray(vao)
		gl.DrawArrays(gl.TRIANGLES, 0, 6)
		window.SwapBuffers()
		glfw.PollEvents()
	}
	return nil
}

// reloadPreview compiles the program for a new configuration. The running
// program and frame are only replaced on success.
func reloadPreview(pp previewProgram, next FileConfig, fp glrender.FrameParameters) (previewProgram, glrender.FrameParameters, error) {
	nextFrame, err := next.Frame.Parameters()
	if err != nil {
		return pp, fp, err
	}
	pl, err := glrender.NewPipeline(next.Shell())
	if err != nil {
		return pp, fp, err
	}
	npp, err := compilePreview(pl)
	if err != nil {
		return pp, fp, err
	}
	pp.prog.Delete()
	fp.Tint = nextFrame.Tint
	fp.Speed = nextFrame.Speed
	return npp, fp, nil
}

func compilePreview(pl *glrender.Pipeline) (previewProgram, error) {
	var frag bytes.Buffer
	_, err := glrender.WriteFragmentProgram(&frag, pl, glbuild.NewDefaultProgrammer())
	if err != nil {
		return previewProgram{}, err
	}
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   quadVertexSource,
		Fragment: frag.String(),
	})
	if err != nil {
		return previewProgram{}, fmt.Errorf("%s\n\n%w", frag.String(), err)
	}
	pp := previewProgram{prog: prog}
	for _, u := range []struct {
		loc  *int32
		name string
	}{
		{&pp.uColor, "uColor\x00"},
		{&pp.uResMouse, "uResolutionMouse\x00"},
		{&pp.uTimeParm, "uTimeParams\x00"},
	} {
		*u.loc, err = prog.UniformLocation(u.name)
		if err != nil {
			prog.Delete()
			return previewProgram{}, err
		}
	}
	return pp, nil
}

// watchConfig signals on the returned channel when filename is written or
// replaced. The containing directory is watched since editors often save by
// renaming a temporary file over the original.
func watchConfig(watcher *fsnotify.Watcher, filename string, log func(...any)) (<-chan struct{}, error) {
	filename = filepath.Clean(filename)
	err := watcher.Add(filepath.Dir(filename))
	if err != nil {
		return nil, err
	}
	reload := make(chan struct{}, 1)
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filename || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				select {
				case reload <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log("config watcher:", err)
			}
		}
	}()
	return reload, nil
}

func startGLFW(width, height int) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("initializing GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	window, err = glfw.CreateWindow(width, height, "icosdf shell preview", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("creating GLFW window: %w", err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)
	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	return window, glfw.Terminate, nil
}
