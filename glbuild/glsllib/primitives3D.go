package glsllib

import (
	_ "embed"

	"github.com/soypat/icosdf/glbuild"
)

//go:embed cappedCone3D.glsl
var cappedCone3DSrc []byte

// CappedCone3D is the exact SDF of a cone along a unit axis from the origin,
// with radius r1 at the base and r2 at height h:
//
//	float icoCappedCone(vec3 p, vec3 axis, float h, float r1, float r2)
func CappedCone3D() glbuild.ShaderObject {
	obj, _ := glbuild.MakeShaderFunction(cappedCone3DSrc)
	return obj
}

//go:embed window3D.glsl
var window3DSrc []byte

// Window3D is the bound of an infinite cone with apex at the origin, axis n
// and half angle with cosine c and sine s:
//
//	float icoWindow(vec3 p, vec3 n, float c, float s)
func Window3D() glbuild.ShaderObject {
	obj, _ := glbuild.MakeShaderFunction(window3DSrc)
	return obj
}
