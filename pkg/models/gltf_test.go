package models

import (
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func TestLoadGLBInvalidPath(t *testing.T) {
	_, err := LoadGLB("/nonexistent/path.glb")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestGLTFLoaderCreation(t *testing.T) {
	loader := NewGLTFLoader()
	if loader == nil {
		t.Error("NewGLTFLoader returned nil")
		return
	}
	if !loader.CalculateNormals {
		t.Error("CalculateNormals should default to true")
	}
	if !loader.SmoothNormals {
		t.Error("SmoothNormals should default to true")
	}
}

// writeTriangleGLB saves a single red counter-clockwise triangle facing +Z.
func writeTriangleGLB(t *testing.T) string {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	red := [4]float64{1, 0, 0, 1}
	doc.Materials = []*gltf.Material{{
		Name:                 "red",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{BaseColorFactor: &red},
	}}
	doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{gltf.POSITION: pos},
			Material:   gltf.Index(0),
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: "tri", Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	path := filepath.Join(t.TempDir(), "tri.glb")
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatalf("save glb: %v", err)
	}
	return path
}

func TestLoadGLBKeepsWindingAndMaterial(t *testing.T) {
	mesh, err := LoadGLB(writeTriangleGLB(t))
	if err != nil {
		t.Fatal(err)
	}

	if mesh.TriangleCount() != 1 || mesh.VertexCount() != 3 {
		t.Fatalf("got %d tris / %d verts, want 1 / 3", mesh.TriangleCount(), mesh.VertexCount())
	}
	if n := faceNormal(mesh, 0); n.Z < 0.99 {
		t.Errorf("face normal = %v, want +Z (winding preserved)", n)
	}
	_, vn, _ := mesh.GetVertex(0)
	if vn.Z < 0.99 {
		t.Errorf("generated normal = %v, want +Z", vn)
	}

	mat := mesh.GetMaterial(mesh.GetFaceMaterial(0))
	if mat == nil || mat.Name != "red" {
		t.Fatalf("face material = %+v, want red", mat)
	}
	if !mat.Sliceable {
		t.Error("loaded materials should be sliceable")
	}
	if c := mat.Color(); c.R != 255 || c.G != 0 {
		t.Errorf("base color = %v, want red", c)
	}
}
