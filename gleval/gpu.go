package gleval

import (
	"unsafe"

	"github.com/soypat/geometry/ms3"
)

// ComputeConfig configures GPU compute dispatch.
type ComputeConfig struct {
	// InvocX is the local work group size in x the compute program was generated with.
	InvocX int
}

// SDF3Compute evaluates an SDF with a compiled GLSL compute program.
// It must be used from the goroutine that owns the GL context.
type SDF3Compute struct {
	sdf3Compute
	bb ms3.Box
}

// Bounds returns the bounding box the SDF was created with.
func (sdf *SDF3Compute) Bounds() ms3.Box {
	return sdf.bb
}

// Evaluate implements [SDF3] by uploading positions to the GPU and reading back distances.
func (sdf *SDF3Compute) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	if len(pos) != len(dist) {
		return errMismatchBufferLength
	} else if len(pos) == 0 {
		return errEmptyBuffers
	}
	return sdf.evaluate(pos, dist)
}

func elemSize[T any]() int {
	var z T
	return int(unsafe.Sizeof(z))
}
