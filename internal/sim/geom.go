package sim

import (
	"fmt"
	"math"
)

// Location is a point in world space, in metres.
type Location struct {
	X, Y, Z float64
}

// Distance returns the euclidean distance between l and o.
func (l Location) Distance(o Location) float64 {
	return l.Vector(o).Length()
}

// Vector returns the vector from l to o.
func (l Location) Vector(o Location) Vector3D {
	return Vector3D{X: o.X - l.X, Y: o.Y - l.Y, Z: o.Z - l.Z}
}

// Add offsets l by v.
func (l Location) Add(v Vector3D) Location {
	return Location{X: l.X + v.X, Y: l.Y + v.Y, Z: l.Z + v.Z}
}

func (l Location) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", l.X, l.Y, l.Z)
}

// Vector3D is a direction or velocity in world space.
type Vector3D struct {
	X, Y, Z float64
}

// Length returns the magnitude of v.
func (v Vector3D) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Scale multiplies v by s.
func (v Vector3D) Scale(s float64) Vector3D {
	return Vector3D{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Normalize returns the unit vector of v, or the zero vector if v has no length.
func (v Vector3D) Normalize() Vector3D {
	n := v.Length()
	if n == 0 {
		return Vector3D{}
	}
	return v.Scale(1 / n)
}

// Dot returns the dot product of v and o.
func (v Vector3D) Dot(o Vector3D) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// CrossZ returns the z component of v × o.
//
// With the right-hand lane convention used by the grid map (y grows to the right of a
// vehicle heading along +x), a positive value means o points to the right of v.
func (v Vector3D) CrossZ(o Vector3D) float64 {
	return v.X*o.Y - v.Y*o.X
}

// Rotation is an orientation in degrees. Only Yaw is used by the grid map.
type Rotation struct {
	Pitch, Yaw, Roll float64
}

// ForwardVector returns the unit heading for the yaw.
func (r Rotation) ForwardVector() Vector3D {
	rad := r.Yaw * math.Pi / 180
	return Vector3D{X: math.Cos(rad), Y: math.Sin(rad)}
}

// RightVector returns the unit vector pointing to the right of the heading.
func (r Rotation) RightVector() Vector3D {
	f := r.ForwardVector()
	return Vector3D{X: -f.Y, Y: f.X}
}

// Transform is a location plus orientation.
type Transform struct {
	Location Location
	Rotation Rotation
}

// YawOf returns the yaw, in degrees within [0, 360), of v.
func YawOf(v Vector3D) float64 {
	yaw := math.Atan2(v.Y, v.X) * 180 / math.Pi
	if yaw < 0 {
		yaw += 360
	}
	return yaw
}

// AngleBetween returns the unsigned angle, in radians, between a and b.
func AngleBetween(a, b Vector3D) float64 {
	na, nb := a.Length(), b.Length()
	if na == 0 || nb == 0 {
		return 0
	}
	c := a.Dot(b) / (na * nb)
	return math.Acos(math.Max(-1, math.Min(1, c)))
}
