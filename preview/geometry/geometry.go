// Package geometry provides the immutable vertex/index templates the preview
// runtime can draw. The set is fixed: quad, triangle, cube, and sphere. Each
// descriptor holds interleaved position+texcoord vertex data, a triangle-list
// index sequence, and the byte layout the runtime uses to build attribute
// bindings. Descriptors are built once at package init and never mutated.
package geometry

import (
	"math"
	"strings"
)

// Type identifies one of the fixed geometry descriptors.
type Type int

const (
	// TypeQuad is a unit quad in the XY plane (2D, 4 vertices / 6 indices).
	TypeQuad Type = iota

	// TypeTriangle is a single triangle in the XY plane (2D, 3 vertices / 3 indices).
	TypeTriangle

	// TypeCube is an axis-aligned cube with per-face vertices (3D, 24 vertices / 36 indices).
	TypeCube

	// TypeSphere is a procedurally generated unit sphere from 30x30
	// latitude/longitude bands (3D, 31*31 vertices / 30*30*6 indices).
	TypeSphere
)

// String returns the lowercase name of the geometry type.
func (t Type) String() string {
	switch t {
	case TypeQuad:
		return "quad"
	case TypeTriangle:
		return "triangle"
	case TypeCube:
		return "cube"
	case TypeSphere:
		return "sphere"
	}
	return "unknown"
}

// ParseType resolves a geometry name to its Type.
//
// Parameters:
//   - name: case-insensitive geometry name ("quad", "triangle", "cube", "sphere")
//
// Returns:
//   - Type: the matching type (TypeQuad if not found)
//   - bool: true if the name matched a known type
func ParseType(name string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "quad":
		return TypeQuad, true
	case "triangle":
		return TypeTriangle, true
	case "cube":
		return TypeCube, true
	case "sphere":
		return TypeSphere, true
	}
	return TypeQuad, false
}

// Descriptor is an immutable vertex/index buffer template for one geometry type.
// Vertex data is interleaved as position components followed by two texture
// coordinate components per vertex. 2D geometries carry 2 position components
// (16-byte stride, texcoord at byte offset 8); 3D geometries carry 3
// (20-byte stride, texcoord at byte offset 12).
type Descriptor struct {
	geometryType Type
	vertices     []float32
	indices      []uint32
	positionDims int
}

// Type returns the geometry type this descriptor describes.
func (d *Descriptor) Type() Type {
	return d.geometryType
}

// Vertices returns the interleaved vertex data. Callers must not mutate it.
func (d *Descriptor) Vertices() []float32 {
	return d.vertices
}

// Indices returns the triangle-list index data. Callers must not mutate it.
func (d *Descriptor) Indices() []uint32 {
	return d.indices
}

// PositionComponents returns the number of position components per vertex (2 or 3).
func (d *Descriptor) PositionComponents() int {
	return d.positionDims
}

// VertexCount returns the number of vertices in the descriptor.
func (d *Descriptor) VertexCount() int {
	return len(d.vertices) / (d.positionDims + 2)
}

// IndexCount returns the number of indices in the descriptor.
func (d *Descriptor) IndexCount() int {
	return len(d.indices)
}

// Stride returns the byte distance between consecutive vertices: 16 for 2D
// geometries, 20 for 3D geometries.
func (d *Descriptor) Stride() uint64 {
	return uint64(d.positionDims+2) * 4
}

// TexCoordOffset returns the byte offset of the texture-coordinate attribute
// within a vertex: 8 for 2D geometries, 12 for 3D geometries.
func (d *Descriptor) TexCoordOffset() uint64 {
	return uint64(d.positionDims) * 4
}

// descriptors holds the four shared descriptors, built once at init.
var descriptors [4]*Descriptor

func init() {
	descriptors[TypeQuad] = newQuad()
	descriptors[TypeTriangle] = newTriangle()
	descriptors[TypeCube] = newCube()
	descriptors[TypeSphere] = newSphere(30, 30)
}

// Get returns the shared descriptor for the given type.
//
// Parameters:
//   - t: the geometry type
//
// Returns:
//   - *Descriptor: the shared immutable descriptor, or nil for unknown types
func Get(t Type) *Descriptor {
	if t < TypeQuad || t > TypeSphere {
		return nil
	}
	return descriptors[t]
}

func newQuad() *Descriptor {
	return &Descriptor{
		geometryType: TypeQuad,
		positionDims: 2,
		// x, y, u, v
		vertices: []float32{
			-1, -1, 0, 0,
			1, -1, 1, 0,
			1, 1, 1, 1,
			-1, 1, 0, 1,
		},
		indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

func newTriangle() *Descriptor {
	return &Descriptor{
		geometryType: TypeTriangle,
		positionDims: 2,
		// x, y, u, v
		vertices: []float32{
			0, 1, 0.5, 1,
			-1, -1, 0, 0,
			1, -1, 1, 0,
		},
		indices: []uint32{0, 1, 2},
	}
}

func newCube() *Descriptor {
	// 4 vertices per face so each face gets its own texture coordinates.
	// x, y, z, u, v
	vertices := []float32{
		// front (+z)
		-1, -1, 1, 0, 0,
		1, -1, 1, 1, 0,
		1, 1, 1, 1, 1,
		-1, 1, 1, 0, 1,
		// back (-z)
		-1, -1, -1, 1, 0,
		-1, 1, -1, 1, 1,
		1, 1, -1, 0, 1,
		1, -1, -1, 0, 0,
		// top (+y)
		-1, 1, -1, 0, 1,
		-1, 1, 1, 0, 0,
		1, 1, 1, 1, 0,
		1, 1, -1, 1, 1,
		// bottom (-y)
		-1, -1, -1, 1, 1,
		1, -1, -1, 0, 1,
		1, -1, 1, 0, 0,
		-1, -1, 1, 1, 0,
		// right (+x)
		1, -1, -1, 1, 0,
		1, 1, -1, 1, 1,
		1, 1, 1, 0, 1,
		1, -1, 1, 0, 0,
		// left (-x)
		-1, -1, -1, 0, 0,
		-1, -1, 1, 1, 0,
		-1, 1, 1, 1, 1,
		-1, 1, -1, 0, 1,
	}

	indices := make([]uint32, 0, 36)
	for face := uint32(0); face < 6; face++ {
		base := face * 4
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}

	return &Descriptor{
		geometryType: TypeCube,
		positionDims: 3,
		vertices:     vertices,
		indices:      indices,
	}
}

// newSphere generates a unit sphere from latitude/longitude bands. Each band
// edge is duplicated (bands+1 vertices per ring) so texture coordinates wrap
// cleanly at the seam.
func newSphere(latBands, lonBands int) *Descriptor {
	vertices := make([]float32, 0, (latBands+1)*(lonBands+1)*5)
	for lat := 0; lat <= latBands; lat++ {
		theta := float64(lat) * math.Pi / float64(latBands)
		sinTheta, cosTheta := math.Sin(theta), math.Cos(theta)

		for lon := 0; lon <= lonBands; lon++ {
			phi := float64(lon) * 2 * math.Pi / float64(lonBands)
			sinPhi, cosPhi := math.Sin(phi), math.Cos(phi)

			x := cosPhi * sinTheta
			y := cosTheta
			z := sinPhi * sinTheta
			u := 1 - float64(lon)/float64(lonBands)
			v := 1 - float64(lat)/float64(latBands)

			vertices = append(vertices,
				float32(x), float32(y), float32(z),
				float32(u), float32(v))
		}
	}

	indices := make([]uint32, 0, latBands*lonBands*6)
	for lat := 0; lat < latBands; lat++ {
		for lon := 0; lon < lonBands; lon++ {
			first := uint32(lat*(lonBands+1) + lon)
			second := first + uint32(lonBands) + 1
			indices = append(indices,
				first, second, first+1,
				second, second+1, first+1)
		}
	}

	return &Descriptor{
		geometryType: TypeSphere,
		positionDims: 3,
		vertices:     vertices,
		indices:      indices,
	}
}
