package glsllib

import (
	_ "embed"

	"github.com/soypat/icosdf/glbuild"
)

//go:embed smoothUnion.glsl
var smoothUnionSrc []byte

// SmoothUnion is the polynomial smooth minimum of two distances:
//
//	float icoSmoothUnion(float a, float b, float k)
func SmoothUnion() glbuild.ShaderObject {
	obj, _ := glbuild.MakeShaderFunction(smoothUnionSrc)
	return obj
}

//go:embed smoothIntersect.glsl
var smoothIntersectSrc []byte

// SmoothIntersect is the polynomial smooth maximum of two distances:
//
//	float icoSmoothIntersect(float a, float b, float k)
func SmoothIntersect() glbuild.ShaderObject {
	obj, _ := glbuild.MakeShaderFunction(smoothIntersectSrc)
	return obj
}

//go:embed smoothDiff.glsl
var smoothDiffSrc []byte

// SmoothDiff is the smooth subtraction of b from a:
//
//	float icoSmoothDiff(float a, float b, float k)
func SmoothDiff() glbuild.ShaderObject {
	obj, _ := glbuild.MakeShaderFunction(smoothDiffSrc)
	return obj
}
