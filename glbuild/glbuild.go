// Package glbuild generates GLSL source code from SDF node trees.
package glbuild

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/soypat/geometry/ms3"
)

// VersionStr is the GLSL version directive compute programs are written with.
const VersionStr = "#version 430\n"

// Shader stores information for automatically generating SDF Shader pipelines
// and evaluating them correctly on a GPU.
type Shader interface {
	// AppendShaderName appends the name of the GL shader function
	// to the buffer and returns the result. It should be unique to that shader.
	AppendShaderName(b []byte) []byte
	// AppendShaderBody appends the body of the shader function to the
	// buffer and returns the result.
	AppendShaderBody(b []byte) []byte
	// AppendShaderObjects appends the helper functions needed to evaluate the
	// shader correctly. See [ShaderObject].
	AppendShaderObjects(objs []ShaderObject) []ShaderObject
}

// Shader3D can create SDF shader source code for an arbitrary 3D shape.
type Shader3D interface {
	Shader
	// ForEachChild iterates over the Shader3D's direct Shader3D children.
	ForEachChild(userData any, fn func(userData any, s *Shader3D) error) error
	// Bounds returns the Shader3D's bounding box where the SDF is negative.
	Bounds() ms3.Box
}

// ShaderObject is a GLSL helper function shared between shaders. Functions
// required by several nodes are written to the program once.
type ShaderObject struct {
	// NamePtr is the name of the function as called from shader bodies.
	NamePtr []byte
	source  []byte
}

// MakeShaderFunction parses a full GLSL function definition and returns it as a [ShaderObject].
func MakeShaderFunction(shaderDef []byte) (ShaderObject, error) {
	shaderDef = bytes.TrimSpace(shaderDef)
	nameEnd := bytes.IndexByte(shaderDef, '(')
	nameStart := bytes.IndexByte(shaderDef, ' ')
	if nameEnd < 0 || nameStart < 0 || nameStart > nameEnd {
		return ShaderObject{}, errors.New("unable to parse function name")
	}
	name := bytes.TrimSpace(shaderDef[nameStart:nameEnd])
	if len(name) == 0 {
		return ShaderObject{}, errors.New("empty function name")
	}
	return ShaderObject{NamePtr: name, source: shaderDef}, nil
}

// Source returns the GLSL function definition.
func (obj ShaderObject) Source() []byte { return obj.source }

// Programmer implements shader generation logic for Shader type.
type Programmer struct {
	scratchNodes  []Shader
	scratch       []byte
	computeHeader []byte
	objsScratch   []ShaderObject
	// names maps shader and function name hashes to source hashes for checking duplicates.
	names map[uint64]uint64
	// Invocations size in X (local group size) to give each compute work group.
	invocX int
}

var defaultComputeHeader = []byte("#shader compute\n" + VersionStr)

// NewDefaultProgrammer returns a Programmer with reasonable default parameters for use with glgl package on the local machine.
func NewDefaultProgrammer() *Programmer {
	return &Programmer{
		scratchNodes:  make([]Shader, 0, 16),
		scratch:       make([]byte, 0, 1024),
		computeHeader: defaultComputeHeader,
		names:         make(map[uint64]uint64),
		invocX:        32,
	}
}

// SetComputeInvocations sets the work group local-sizes. x*y*z must be less than maximum number of invocations.
func (p *Programmer) SetComputeInvocations(x, y, z int) {
	if y != 1 || z != 1 {
		panic("unsupported")
	} else if x < 1 {
		panic("zero or negative X invocation size")
	}
	p.invocX = x
}

// ComputeInvocations returns the worker group invocation size in x y and z.
func (p *Programmer) ComputeInvocations() (int, int, int) {
	return p.invocX, 1, 1
}

// WriteComputeSDF3 writes a glgl combined compute program that evaluates obj.
// Positions are read from binding 0 as a tightly packed float array of xyz
// triplets and distances are written to binding 1.
func (p *Programmer) WriteComputeSDF3(w io.Writer, obj Shader3D) (int, error) {
	baseName, nodes, err := ParseAppendNodes(p.scratchNodes[:0], obj)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(p.computeHeader)
	if err != nil {
		return n, err
	}
	ngot, err := p.writeShaders(w, nodes)
	n += ngot
	if err != nil {
		return n, err
	}
	ngot, err = fmt.Fprintf(w, `
layout(local_size_x = %d, local_size_y = 1, local_size_z = 1) in;

layout(std430, binding = 0) buffer PositionsBuffer {
	float vbo_positions[];
};

layout(std430, binding = 1) buffer DistancesBuffer {
	float vbo_distances[];
};

void main() {
	int idx = int(gl_GlobalInvocationID.x);
	if (idx >= vbo_distances.length()) {
		return;
	}
	vec3 p = vec3(vbo_positions[3*idx], vbo_positions[3*idx+1], vbo_positions[3*idx+2]);
	vbo_distances[idx] = %s(p);
}
`, p.invocX, baseName)
	n += ngot
	return n, err
}

// WriteSDFDecl writes the SDF shader function declarations and returns the top-level SDF function name.
func (p *Programmer) WriteSDFDecl(w io.Writer, s Shader3D) (baseName string, n int, err error) {
	baseName, nodes, err := ParseAppendNodes(p.scratchNodes[:0], s)
	if err != nil {
		return "", 0, err
	}
	n, err = p.writeShaders(w, nodes)
	if err != nil {
		return "", n, err
	}
	return baseName, n, nil
}

func (p *Programmer) writeShaders(w io.Writer, nodes []Shader) (n int, err error) {
	clear(p.names)
	p.objsScratch = p.objsScratch[:0]
	for i := len(nodes) - 1; i >= 0; i-- {
		p.objsScratch = nodes[i].AppendShaderObjects(p.objsScratch)
	}
	// Helper functions go first since shader bodies call them.
	p.scratch = p.scratch[:0]
	for _, obj := range p.objsScratch {
		nameHash := hash(obj.NamePtr, 0)
		srcHash := hash(obj.source, nameHash)
		gotSrcHash, nameConflict := p.names[nameHash]
		if nameConflict {
			if gotSrcHash == srcHash {
				continue
			}
			return n, fmt.Errorf("shader function %q defined twice with distinct source", obj.NamePtr)
		}
		p.names[nameHash] = srcHash
		p.scratch = append(p.scratch, obj.source...)
		p.scratch = append(p.scratch, '\n', '\n')
	}
	if len(p.scratch) > 0 {
		n, err = w.Write(p.scratch)
		if err != nil {
			return n, err
		}
	}

	for i := len(nodes) - 1; i >= 0; i-- {
		node := nodes[i]
		var name, body []byte
		p.scratch, name, body = AppendShaderSource(p.scratch[:0], node)
		nameHash := hash(name, 0)
		bodyHash := hash(body, nameHash) // Body hash mixes name as well.
		gotBodyHash, nameConflict := p.names[nameHash]
		if nameConflict {
			if bodyHash == gotBodyHash {
				continue // Shader already written and is identical, skip.
			}
			return n, fmt.Errorf("duplicate %T shader name %q with distinct body:\n%s", node, name, body)
		}
		p.names[nameHash] = bodyHash
		ngot, err := w.Write(p.scratch)
		n += ngot
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// ParseAppendNodes parses the shader object tree and appends all nodes in Breadth First order
// to the dst Shader argument buffer and returns the result.
func ParseAppendNodes(dst []Shader, root Shader3D) (baseName string, nodes []Shader, err error) {
	if root == nil {
		return "", nil, errors.New("nil shader object")
	}
	baseName = string(root.AppendShaderName(nil))
	if baseName == "" {
		return "", nil, errors.New("empty shader name")
	}
	dst, err = AppendAllNodes(dst, root)
	if err != nil {
		return "", nil, err
	}
	return baseName, dst, nil
}

// AppendShaderSource appends the GL code of a single shader to the dst byte buffer.  If dst's
// capacity is grown during the writing the buffer with augmented capacity is returned. If not the same input dst is returned.
// name and body byte slices pointing to the result buffer are also returned for convenience.
func AppendShaderSource(dst []byte, s Shader) (result, name, body []byte) {
	dst = append(dst, "float "...)
	nameStart := len(dst)
	dst = s.AppendShaderName(dst)
	nameEnd := len(dst)
	dst = append(dst, "(vec3 p){\n"...)
	bodyStart := len(dst)
	dst = s.AppendShaderBody(dst)
	bodyEnd := len(dst)
	dst = append(dst, "\n}\n\n"...)
	return dst, dst[nameStart:nameEnd], dst[bodyStart:bodyEnd]
}

// AppendAllNodes BFS iterates over all of root's descendants and appends all nodes
// found to dst.
//
// To generate shaders one must iterate over nodes in reverse order to ensure
// the first iterated nodes are the nodes with no dependencies on other nodes.
func AppendAllNodes(dst []Shader, root Shader3D) ([]Shader, error) {
	var userData any
	children := []Shader3D{root}
	nilChild := errors.New("got nil child in AppendAllNodes")
	for next := 0; next < len(children); next++ {
		err := children[next].ForEachChild(userData, func(userData any, s *Shader3D) error {
			if s == nil || *s == nil {
				return nilChild
			}
			children = append(children, *s)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	for _, child := range children {
		dst = append(dst, child)
	}
	return dst, nil
}

func AppendDistanceDecl(b []byte, floatVarname, sdfPositionArgInput string, s Shader) []byte {
	b = append(b, "float "...)
	b = append(b, floatVarname...)
	b = append(b, '=')
	b = s.AppendShaderName(b)
	b = append(b, '(')
	b = append(b, sdfPositionArgInput...)
	b = append(b, ");\n"...)
	return b
}

func AppendVec3Decl(b []byte, vec3Varname string, v ms3.Vec) []byte {
	b = append(b, "vec3 "...)
	b = append(b, vec3Varname...)
	b = append(b, "=vec3("...)
	arr := v.Array()
	b = AppendFloats(b, ',', '-', '.', arr[:]...)
	b = append(b, ')', ';', '\n')
	return b
}

func AppendFloatDecl(b []byte, floatVarname string, v float32) []byte {
	b = append(b, "float "...)
	b = append(b, floatVarname...)
	b = append(b, '=')
	b = AppendFloat(b, '-', '.', v)
	b = append(b, ';', '\n')
	return b
}

// AppendFloat appends v in decimal notation with trailing zeros trimmed. The
// minus sign and decimal point are replaced by neg and decimal which lets
// callers build GLSL identifiers out of values.
func AppendFloat(b []byte, neg, decimal byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', -1, 32)
	idx := bytes.IndexByte(b[start:], '.')
	if idx < 0 {
		// GLSL needs a decimal point to parse a float literal.
		b = append(b, decimal, '0')
	} else {
		b[start+idx] = decimal
	}
	if b[start] == '-' {
		b[start] = neg
	}
	return b
}

func AppendFloats(b []byte, sep, neg, decimal byte, s ...float32) []byte {
	for i, v := range s {
		b = AppendFloat(b, neg, decimal, v)
		if sep != 0 && i != len(s)-1 {
			b = append(b, sep)
		}
	}
	return b
}

func hash(b []byte, in uint64) uint64 {
	x := in
	for len(b) >= 8 {
		x ^= binary.LittleEndian.Uint64(b)
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
		b = b[8:]
	}
	if len(b) > 0 {
		var buf [8]byte
		copy(buf[:], b)
		x ^= binary.LittleEndian.Uint64(buf[:])
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
	}
	return x
}
