// Package geometry builds the ten-sided die used by the dice tray.
//
// The die is a pentagonal trapezohedron: two poles and a zig-zag ring of
// ten vertices, joined by ten kite faces. Faces carry the raw values 0–9,
// where 0 reads as ten, and opposite faces sum to 9.
package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// FaceCount is the number of faces on the die.
const FaceCount = 10

// Up is the world up axis used to read the die.
var Up = mgl64.Vec3{0, 1, 0}

// Face is one kite of the die.
type Face struct {
	Value    int
	Vertices [4]int
	Normal   mgl64.Vec3
	Center   mgl64.Vec3
}

// D10 is an immutable die mesh in model space.
type D10 struct {
	Vertices []mgl64.Vec3
	Faces    []Face
	// Radius bounds every vertex.
	Radius float64
}

// upperValues is indexed by upper kite; the lower kite opposite upper kite
// i is (i+2)%5 and carries 9 minus its value.
var upperValues = [5]int{1, 3, 5, 7, 9}

// NewD10 builds a die whose poles sit at ±size on the Y axis and whose ring
// vertices lie on a circle of radius size.
func NewD10(size float64) *D10 {
	if size <= 0 {
		size = 1
	}
	cos36 := math.Cos(mgl64.DegToRad(36))
	ring := size * (1 - cos36) / (1 + cos36)

	vertices := make([]mgl64.Vec3, 0, 12)
	vertices = append(vertices, mgl64.Vec3{0, size, 0}, mgl64.Vec3{0, -size, 0})
	for k := 0; k < 10; k++ {
		angle := mgl64.DegToRad(float64(k) * 36)
		y := ring
		if k%2 == 1 {
			y = -ring
		}
		vertices = append(vertices, mgl64.Vec3{size * math.Cos(angle), y, size * math.Sin(angle)})
	}

	const top, bottom = 0, 1
	rv := func(k int) int { return 2 + k%10 }

	d := &D10{Vertices: vertices, Radius: math.Hypot(size, ring)}
	for i := 0; i < 5; i++ {
		d.Faces = append(d.Faces, d.face(upperValues[i], [4]int{top, rv(2 * i), rv(2*i + 1), rv(2*i + 2)}))
	}
	for i := 0; i < 5; i++ {
		opposite := (i + 3) % 5
		d.Faces = append(d.Faces, d.face(9-upperValues[opposite], [4]int{bottom, rv(2*i + 1), rv(2*i + 2), rv(2*i + 3)}))
	}
	return d
}

func (d *D10) face(value int, idx [4]int) Face {
	var center mgl64.Vec3
	for _, i := range idx {
		center = center.Add(d.Vertices[i])
	}
	center = center.Mul(0.25)

	a, b, c := d.Vertices[idx[0]], d.Vertices[idx[1]], d.Vertices[idx[3]]
	normal := b.Sub(a).Cross(c.Sub(a)).Normalize()
	if normal.Dot(center) < 0 {
		normal = normal.Mul(-1)
	}
	return Face{Value: value, Vertices: idx, Normal: normal, Center: center}
}

// UpFace returns the face whose rotated normal points closest to Up.
func (d *D10) UpFace(orientation mgl64.Quat) Face {
	best, bestDot := 0, math.Inf(-1)
	for i, f := range d.Faces {
		if dot := orientation.Rotate(f.Normal).Dot(Up); dot > bestDot {
			best, bestDot = i, dot
		}
	}
	return d.Faces[best]
}

// FaceUp returns the raw value (0–9) showing on top.
func (d *D10) FaceUp(orientation mgl64.Quat) int {
	return d.UpFace(orientation).Value
}

// Face returns the face carrying a raw value.
func (d *D10) Face(value int) (Face, bool) {
	for _, f := range d.Faces {
		if f.Value == value {
			return f, true
		}
	}
	return Face{}, false
}

// Rest returns orientation corrected so the current up face points straight
// up.
func (d *D10) Rest(orientation mgl64.Quat) mgl64.Quat {
	normal := orientation.Rotate(d.UpFace(orientation).Normal)
	return mgl64.QuatBetweenVectors(normal, Up).Mul(orientation).Normalize()
}

// Showing returns an orientation that rests with value up.
func (d *D10) Showing(value int) (mgl64.Quat, bool) {
	f, ok := d.Face(value)
	if !ok {
		return mgl64.QuatIdent(), false
	}
	return mgl64.QuatBetweenVectors(f.Normal, Up), true
}

// Lowest returns the smallest Y of the die's vertices after rotation.
func (d *D10) Lowest(orientation mgl64.Quat) float64 {
	lowest := math.Inf(1)
	for _, v := range d.Vertices {
		lowest = math.Min(lowest, orientation.Rotate(v).Y())
	}
	return lowest
}
