package models

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/taigrr/portals/pkg/math3d"
)

// GLTFLoader loads GLTF/GLB files into Mesh format.
type GLTFLoader struct {
	// Options
	CalculateNormals bool
	SmoothNormals    bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		SmoothNormals:    true,
	}
}

// LoadGLB loads a binary GLTF (.glb) file.
func LoadGLB(path string) (*Mesh, error) {
	mesh, _, err := NewGLTFLoader().load(path)
	return mesh, err
}

// Load loads a GLTF or GLB file and returns a Mesh.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	mesh, _, err := l.load(path)
	return mesh, err
}

func (l *GLTFLoader) load(path string) (*Mesh, *gltf.Document, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh := NewMesh(filepath.Base(path))
	mesh.Materials = loadMaterials(doc)

	for _, m := range doc.Meshes {
		if err := l.processMesh(doc, m, mesh); err != nil {
			return nil, nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	hasNormals := false
	for _, v := range mesh.Vertices {
		if v.Normal.Len() > 0.001 {
			hasNormals = true
			break
		}
	}

	if l.CalculateNormals && !hasNormals {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}

	mesh.CalculateBounds()

	return mesh, doc, nil
}

// processMesh appends the triangle primitives of m to mesh.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals [][3]float32
		if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
			if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs [][2]float32
		if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		base := len(mesh.Vertices)
		material := -1
		if prim.Material != nil && *prim.Material < len(mesh.Materials) {
			material = *prim.Material
		}

		for i, p := range positions {
			v := MeshVertex{Position: vec3f(p)}
			if i < len(normals) {
				v.Normal = vec3f(normals[i])
			}
			if i < len(uvs) {
				// GLTF puts V=0 at the top of the image
				v.UV = math3d.V2(float64(uvs[i][0]), 1-float64(uvs[i][1]))
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		var indices []uint32
		if prim.Indices != nil {
			if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		// GLTF front faces wind counter-clockwise, as the rasterizer expects
		for i := 0; i+2 < len(indices); i += 3 {
			mesh.Faces = append(mesh.Faces, Face{
				V: [3]int{
					base + int(indices[i]),
					base + int(indices[i+1]),
					base + int(indices[i+2]),
				},
				Material: material,
			})
		}
	}

	return nil
}

func vec3f(v [3]float32) math3d.Vec3 {
	return math3d.V3(float64(v[0]), float64(v[1]), float64(v[2]))
}

// loadMaterials converts the document's PBR materials. Loaded props can
// straddle portals, so every material accepts a slice plane.
func loadMaterials(doc *gltf.Document) []Material {
	mats := make([]Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		m := Material{
			Name:      gm.Name,
			BaseColor: [4]float64{1, 1, 1, 1},
			Metallic:  1,
			Roughness: 1,
			Sliceable: true,
		}
		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			if pbr.BaseColorFactor != nil {
				m.BaseColor = *pbr.BaseColorFactor
			}
			if pbr.MetallicFactor != nil {
				m.Metallic = *pbr.MetallicFactor
			}
			if pbr.RoughnessFactor != nil {
				m.Roughness = *pbr.RoughnessFactor
			}
			m.HasTexture = pbr.BaseColorTexture != nil
		}
		mats[i] = m
	}
	return mats
}

// LoadGLBWithTexture loads a GLB file and returns the mesh plus the first
// decodable image, embedded or next to the file. The image is nil when the
// model has none.
func LoadGLBWithTexture(path string) (*Mesh, image.Image, error) {
	mesh, doc, err := NewGLTFLoader().load(path)
	if err != nil {
		return nil, nil, err
	}

	for _, img := range doc.Images {
		data := imageData(doc, img, filepath.Dir(path))
		if len(data) == 0 {
			continue
		}
		if decoded, _, err := image.Decode(bytes.NewReader(data)); err == nil {
			for i := range mesh.Materials {
				if mesh.Materials[i].HasTexture {
					mesh.Materials[i].BaseMap = decoded
				}
			}
			return mesh, decoded, nil
		}
	}

	return mesh, nil, nil
}

func imageData(doc *gltf.Document, img *gltf.Image, dir string) []byte {
	if img.BufferView != nil {
		bv := doc.BufferViews[*img.BufferView]
		buf := doc.Buffers[bv.Buffer]
		end := bv.ByteOffset + bv.ByteLength
		if end > len(buf.Data) {
			return nil
		}
		return buf.Data[bv.ByteOffset:end]
	}
	if img.URI == "" || strings.HasPrefix(img.URI, "data:") {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(dir, img.URI))
	if err != nil {
		return nil
	}
	return data
}
