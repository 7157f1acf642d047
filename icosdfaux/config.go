package icosdfaux

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/icosdf"
	"github.com/soypat/icosdf/glrender"
)

// FileConfig is the document read by [LoadConfig]. Values missing from a
// document keep their defaults from [DefaultFileConfig]. The shell and its
// shading recipe are fixed to [icosdf.DefaultConfig] and cannot be set here.
type FileConfig struct {
	Frame  FrameConfig   `json:"frame" toml:"frame"`
	Render RenderOptions `json:"render" toml:"render"`
}

// FrameConfig is the human editable form of [glrender.FrameParameters].
type FrameConfig struct {
	// Tint is a hex sRGB color such as "#4682b4" or a color name such as "steelblue".
	Tint   string  `json:"tint" toml:"tint"`
	Width  int     `json:"width" toml:"width"`
	Height int     `json:"height" toml:"height"`
	Time   float32 `json:"time" toml:"time"`
	Speed  float32 `json:"speed" toml:"speed"`
	Zoom   float32 `json:"zoom" toml:"zoom"`
}

// RenderOptions controls offline rendering.
type RenderOptions struct {
	// Supersample is the number of samples per pixel side. 1 disables supersampling.
	Supersample int `json:"supersample" toml:"supersample"`
	// Frames is the number of GIF frames spread over one animation period.
	Frames int `json:"frames" toml:"frames"`
	// Caption draws the animation time on each frame.
	Caption bool `json:"caption" toml:"caption"`
	// MeshCells is the marching cubes resolution of the STL export.
	MeshCells int `json:"mesh_cells" toml:"mesh_cells"`
	// Workers is the number of render goroutines. Zero uses one per CPU.
	Workers int  `json:"workers" toml:"workers"`
	UseGPU  bool `json:"gpu" toml:"gpu"`
}

// DefaultFileConfig returns an 800x600 steel blue frame.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Frame: FrameConfig{
			Tint:   "steelblue",
			Width:  800,
			Height: 600,
			Speed:  1,
			Zoom:   1,
		},
		Render: RenderOptions{
			Supersample: 1,
			Frames:      48,
			MeshCells:   160,
		},
	}
}

// LoadConfig decodes a "json" or "toml" document on top of [DefaultFileConfig]
// and validates the result. Unknown fields are an error.
func LoadConfig(r io.Reader, format string) (FileConfig, error) {
	cfg := DefaultFileConfig()
	var err error
	switch strings.ToLower(format) {
	case "json":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	case "toml":
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	default:
		return cfg, fmt.Errorf("unsupported config format %q", format)
	}
	if err != nil {
		return cfg, fmt.Errorf("decoding %s config: %w", format, err)
	}
	return cfg, cfg.Validate()
}

// LoadConfigFile loads a configuration file choosing the format by its extension.
func LoadConfigFile(filename string) (FileConfig, error) {
	format := strings.TrimPrefix(filepath.Ext(filename), ".")
	if format == "" {
		return FileConfig{}, errors.New("config file needs a .json or .toml extension")
	}
	fp, err := os.Open(filename)
	if err != nil {
		return FileConfig{}, err
	}
	defer fp.Close()
	return LoadConfig(fp, format)
}

// Shell returns the configuration of the rendered shell, which is always
// [icosdf.DefaultConfig].
func (cfg FileConfig) Shell() icosdf.Config { return icosdf.DefaultConfig() }

// Validate checks the frame and the render options.
func (cfg FileConfig) Validate() error {
	_, err := cfg.Frame.Parameters()
	if err != nil {
		return err
	}
	ro := cfg.Render
	switch {
	case ro.Supersample < 1 || ro.Supersample > 8:
		return errors.New("supersample must be in 1..8")
	case ro.Frames < 1:
		return errors.New("need at least one animation frame")
	case ro.MeshCells < 2:
		return errors.New("mesh cells must be at least 2")
	case ro.Workers < 0:
		return errors.New("negative worker count")
	}
	return nil
}

// Parameters converts the frame to renderer input.
func (fc FrameConfig) Parameters() (glrender.FrameParameters, error) {
	if fc.Width <= 0 || fc.Height <= 0 {
		return glrender.FrameParameters{}, fmt.Errorf("invalid frame size %dx%d", fc.Width, fc.Height)
	}
	tint, err := ParseTint(fc.Tint)
	if err != nil {
		return glrender.FrameParameters{}, err
	}
	return glrender.FrameParameters{
		Tint:       tint,
		Resolution: ms2.Vec{X: float32(fc.Width), Y: float32(fc.Height)},
		Time:       fc.Time,
		Speed:      fc.Speed,
		Zoom:       fc.Zoom,
	}, nil
}
