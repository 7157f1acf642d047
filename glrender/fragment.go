package glrender

import (
	"bytes"
	_ "embed"
	"io"
	"text/template"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/icosdf"
	"github.com/soypat/icosdf/glbuild"
)

//go:embed fragment.tmpl
var fragmentSrc string

var fragmentTmpl = template.Must(template.New("fragment").Funcs(template.FuncMap{
	"float": func(v float32) string {
		return string(glbuild.AppendFloat(nil, '-', '.', v))
	},
	"vec3": func(v ms3.Vec) string {
		arr := v.Array()
		return string(glbuild.AppendFloats(nil, ',', '-', '.', arr[:]...))
	},
}).Parse(fragmentSrc))

type fragmentData struct {
	SDFDecl string
	SDFName string

	Fixed0, Fixed1, Fixed2 ms3.Vec
	Face                   ms3.Vec
	Period                 float32
	SpinRadians            float32

	Target, Back, Up ms3.Vec
	Distance, Focal  float32

	March        icosdf.MarchConfig
	Shading      icosdf.ShadingConfig
	AORadiusSpan float32
	AOSteps      float32
}

// WriteFragmentProgram writes a GLSL fragment program that renders the
// pipeline's shell on the GPU. It expects the full screen quad vertex shader
// output vTexCoord and reads the frame from the uColor, uResolutionMouse and
// uTimeParams uniforms laid out as [FrameParameters.Uniforms]. The program is
// NUL terminated for use with glgl.
func WriteFragmentProgram(w io.Writer, pl *Pipeline, programmer *glbuild.Programmer) (int, error) {
	var decl bytes.Buffer
	name, _, err := programmer.WriteSDFDecl(&decl, pl.shell)
	if err != nil {
		return 0, err
	}
	cfg := pl.cfg
	fixed := icosdf.Spin(cfg.Animation, pl.shell.Basis(), 0)
	cam := pl.camera
	data := fragmentData{
		SDFDecl:      decl.String(),
		SDFName:      name,
		Fixed0:       fixed.VecCol(0),
		Fixed1:       fixed.VecCol(1),
		Fixed2:       fixed.VecCol(2),
		Face:         pl.shell.Basis().Face,
		Period:       cfg.Animation.Period,
		SpinRadians:  cfg.Animation.SpinDegrees * math32.Pi / 180,
		Target:       cam.target,
		Back:         cam.back,
		Up:           cfg.Camera.Up,
		Distance:     cam.distance,
		Focal:        cam.focal,
		March:        cfg.March,
		Shading:      cfg.Shading,
		AORadiusSpan: cfg.Shading.AOMaxRadius - cfg.Shading.AOMinRadius,
		AOSteps:      float32(cfg.Shading.AOSamples - 1),
	}
	var buf bytes.Buffer
	err = fragmentTmpl.Execute(&buf, data)
	if err != nil {
		return 0, err
	}
	buf.WriteByte(0)
	return w.Write(buf.Bytes())
}
