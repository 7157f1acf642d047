package glbuild_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/icosdf"
	"github.com/soypat/icosdf/glbuild"
)

// pair is the union of two shaders.
type pair struct {
	a, b glbuild.Shader3D
	objs []glbuild.ShaderObject
}

func (p *pair) AppendShaderName(b []byte) []byte {
	b = append(b, "pair_"...)
	b = p.a.AppendShaderName(b)
	b = append(b, '_')
	return p.b.AppendShaderName(b)
}

func (p *pair) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendDistanceDecl(b, "d1", "p", p.a)
	b = glbuild.AppendDistanceDecl(b, "d2", "p", p.b)
	return append(b, "return min(d1,d2);"...)
}

func (p *pair) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objs, p.objs...)
}

func (p *pair) ForEachChild(userData any, fn func(userData any, s *glbuild.Shader3D) error) error {
	err := fn(userData, &p.a)
	if err != nil {
		return err
	}
	return fn(userData, &p.b)
}

func (p *pair) Bounds() ms3.Box { return p.a.Bounds().Union(p.b.Bounds()) }

func TestShaderNameDeduplication(t *testing.T) {
	var bld icosdf.Builder
	cfg := icosdf.DefaultConfig()
	// s1 and s2 are identical in name and body but distinct objects.
	s1 := bld.NewShell(cfg.Shape)
	s2 := bld.NewShell(cfg.Shape)
	s1Name := string(s1.AppendShaderName(nil))
	s2Name := string(s2.AppendShaderName(nil))
	if s1Name != s2Name {
		t.Error("expected same name, got\n", s1Name, "\n", s2Name)
	}
	a1 := bld.Animate(s1, cfg.Animation, 0.5)
	a2 := bld.Animate(s2, cfg.Animation, 1.5)
	decl := "float " + s1Name + "(vec3 p)"
	for _, obj := range []glbuild.Shader3D{
		&pair{a: s1, b: s1},
		&pair{a: s1, b: s2},
		&pair{a: a1, b: a2},
	} {
		programmer := glbuild.NewDefaultProgrammer()
		source := new(bytes.Buffer)
		n, err := programmer.WriteComputeSDF3(source, obj)
		if err != nil {
			t.Fatal(err)
		} else if n != source.Len() {
			t.Fatal("written length mismatch", n, source.Len())
		}
		src := source.String()
		declCount := strings.Count(src, decl)
		if declCount != 1 {
			t.Errorf("\n%s\nCompute: want one declaration, got %d", src, declCount)
		}
		fnCount := strings.Count(src, "float icoSmoothUnion(")
		if fnCount != 1 {
			t.Errorf("want one smooth union function declaration, got %d", fnCount)
		}
		if !strings.HasPrefix(src, "#shader compute\n#version 430\n") {
			t.Error("missing compute header")
		}
		source.Reset()
		baseName, n, err := programmer.WriteSDFDecl(source, obj)
		if err != nil {
			t.Fatal(err)
		} else if n != source.Len() {
			t.Fatal("written length mismatch", n, source.Len())
		}
		if !strings.Contains(source.String(), "float "+baseName+"(vec3 p)") {
			t.Errorf("top level function %q not declared", baseName)
		}
	}
}

func TestComputeInvocations(t *testing.T) {
	var bld icosdf.Builder
	shell := bld.NewShell(icosdf.DefaultConfig().Shape)
	programmer := glbuild.NewDefaultProgrammer()
	programmer.SetComputeInvocations(64, 1, 1)
	x, y, z := programmer.ComputeInvocations()
	if x != 64 || y != 1 || z != 1 {
		t.Fatalf("got invocations %d,%d,%d", x, y, z)
	}
	var source bytes.Buffer
	_, err := programmer.WriteComputeSDF3(&source, shell)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(source.String(), "layout(local_size_x = 64, local_size_y = 1, local_size_z = 1) in;") {
		t.Error("compute layout does not use configured invocations")
	}
}

func TestShaderFunctionConflict(t *testing.T) {
	var bld icosdf.Builder
	shell := bld.NewShell(icosdf.DefaultConfig().Shape)
	good, err := glbuild.MakeShaderFunction([]byte("float icoSmoothUnion(float a, float b, float k) { return min(a,b); }"))
	if err != nil {
		t.Fatal(err)
	}
	if string(good.NamePtr) != "icoSmoothUnion" {
		t.Fatalf("parsed function name %q", good.NamePtr)
	}
	root := &pair{a: shell, b: shell, objs: []glbuild.ShaderObject{good}}
	programmer := glbuild.NewDefaultProgrammer()
	_, err = programmer.WriteComputeSDF3(new(bytes.Buffer), root)
	if err == nil {
		t.Fatal("expected error for conflicting shader function definitions")
	}
}

func TestMakeShaderFunctionInvalid(t *testing.T) {
	for _, src := range []string{"", "float", "nofunction", "float (vec3 p){}"} {
		_, err := glbuild.MakeShaderFunction([]byte(src))
		if err == nil {
			t.Errorf("expected error for %q", src)
		}
	}
}

func TestAppendFloat(t *testing.T) {
	for _, test := range []struct {
		v    float32
		neg  byte
		dec  byte
		want string
	}{
		{v: 1, neg: '-', dec: '.', want: "1.0"},
		{v: -0.5, neg: '-', dec: '.', want: "-0.5"},
		{v: 0.12, neg: '-', dec: '.', want: "0.12"},
		{v: -2.25, neg: 'n', dec: 'p', want: "n2p25"},
		{v: 20, neg: 'n', dec: 'p', want: "20p0"},
	} {
		got := string(glbuild.AppendFloat(nil, test.neg, test.dec, test.v))
		if got != test.want {
			t.Errorf("AppendFloat(%v): want %q, got %q", test.v, test.want, got)
		}
	}
	got := string(glbuild.AppendFloats(nil, ',', '-', '.', 1, -2, 0.25))
	if got != "1.0,-2.0,0.25" {
		t.Errorf("AppendFloats: got %q", got)
	}
}
