//go:build !tinygo && cgo

package icosdf_test

import (
	"bytes"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/icosdf"
	"github.com/soypat/icosdf/glbuild"
	"github.com/soypat/icosdf/gleval"
)

// Since GPU must be run in main thread the GPU comparison runs before the
// regular tests.
func TestMain(m *testing.M) {
	runtime.LockOSThread()
	var exit int
	err := testShellGPU()
	if err != nil {
		exit = 1
		log.Println(err)
	}
	runtime.UnlockOSThread()
	os.Exit(m.Run() | exit)
}

func testShellGPU() error {
	term, err := gleval.Init1x1GLFW()
	if err != nil {
		log.Println("skipping GPU tests:", err)
		return nil
	}
	defer term()
	var bld icosdf.Builder
	shell := bld.NewShell(icosdf.DefaultConfig().Shape)
	anim := icosdf.DefaultConfig().Animation
	rng := rand.New(rand.NewSource(1))
	const n = 32 * 32 * 8
	pos := make([]ms3.Vec, n)
	for i := range pos {
		pos[i] = randVec(rng, 2)
	}
	cpuDist := make([]float32, n)
	gpuDist := make([]float32, n)
	var vp gleval.VecPool
	for _, animTime := range []float32{0, 0.7, 2.5} {
		posed := bld.Animate(shell, anim, animTime)
		programmer := glbuild.NewDefaultProgrammer()
		var source bytes.Buffer
		_, err = programmer.WriteComputeSDF3(&source, posed)
		if err != nil {
			return err
		}
		invocX, _, _ := programmer.ComputeInvocations()
		sdf, err := gleval.NewComputeGPUSDF3(&source, posed.Bounds(), gleval.ComputeConfig{InvocX: invocX})
		if err != nil {
			return err
		}
		err = sdf.Evaluate(pos, gpuDist, nil)
		sdf.Delete()
		if err != nil {
			return err
		}
		err = posed.Evaluate(pos, cpuDist, &vp)
		if err != nil {
			return err
		}
		var mismatches int
		for i := range pos {
			if math32.Abs(cpuDist[i]-gpuDist[i]) > 1e-3 {
				mismatches++
			}
		}
		// Points on fold planes may land in different regions.
		if mismatches > n/500 {
			return fmt.Errorf("time %g: %d of %d GPU distances differ from CPU", animTime, mismatches, n)
		}
	}
	return bld.Err()
}
