//go:build tinygo || !cgo

package gleval

import (
	"errors"
	"io"

	"github.com/soypat/geometry/ms3"
)

var errNoCGO = errors.New("GPU evaluation requires CGo and is not supported on TinyGo")

// Init1x1GLFW is not supported without cgo.
func Init1x1GLFW() (terminate func(), err error) {
	return nil, errNoCGO
}

// NewComputeGPUSDF3 is not supported without cgo.
func NewComputeGPUSDF3(glglSourceCode io.Reader, bb ms3.Box, cfg ComputeConfig) (*SDF3Compute, error) {
	return nil, errNoCGO
}

type sdf3Compute struct{}

func (sdf3Compute) evaluate(pos []ms3.Vec, dist []float32) error {
	return errNoCGO
}

// Delete is a no-op without cgo.
func (sdf *SDF3Compute) Delete() {}
