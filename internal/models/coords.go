package models

import (
	"fmt"
	"math"
)

// Vector3 is an AP/ML/DV coordinate (mm) or a direction in the same frame.
type Vector3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Vector4 is a manipulator position: X/Y/Z axes plus the depth axis in W (mm).
type Vector4 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
	W float64 `json:"w" yaml:"w"`
}

// NaN3 returns a Vector3 with every component NaN (an "unset" coordinate).
func NaN3() Vector3 {
	return Vector3{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
}

// NaN4 returns a Vector4 with every component NaN.
func NaN4() Vector4 {
	return Vector4{X: math.NaN(), Y: math.NaN(), Z: math.NaN(), W: math.NaN()}
}

func (v Vector3) Add(o Vector3) Vector3 { return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vector3) Sub(o Vector3) Vector3 { return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}
func (v Vector3) Dot(o Vector3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vector3) Length() float64       { return math.Sqrt(v.Dot(v)) }

// Distance returns the Euclidean distance between two coordinates.
func (v Vector3) Distance(o Vector3) float64 { return v.Sub(o).Length() }

// Normalized returns the unit vector in the direction of v.
// The zero vector is returned unchanged.
func (v Vector3) Normalized() Vector3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// ProjectOnPlane removes the component of v along normal.
func (v Vector3) ProjectOnPlane(normal Vector3) Vector3 {
	sq := normal.Dot(normal)
	if sq == 0 {
		return v
	}
	return v.Sub(normal.Scale(v.Dot(normal) / sq))
}

// IsNaN reports whether any component is NaN.
func (v Vector3) IsNaN() bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z)
}

// Equal compares component-wise. NaN never equals anything.
func (v Vector3) Equal(o Vector3) bool {
	return v.X == o.X && v.Y == o.Y && v.Z == o.Z
}

func (v Vector3) String() string {
	return fmt.Sprintf("(AP %.3f, ML %.3f, DV %.3f)", v.X, v.Y, v.Z)
}

func (v Vector4) Add(o Vector4) Vector4 { return Vector4{v.X + o.X, v.Y + o.Y, v.Z + o.Z, v.W + o.W} }
func (v Vector4) Sub(o Vector4) Vector4 { return Vector4{v.X - o.X, v.Y - o.Y, v.Z - o.Z, v.W - o.W} }

// IsNaN reports whether any component is NaN.
func (v Vector4) IsNaN() bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z) || math.IsNaN(v.W)
}

// Merge returns v with every non-NaN component of o applied on top.
func (v Vector4) Merge(o Vector4) Vector4 {
	pick := func(cur, next float64) float64 {
		if math.IsNaN(next) {
			return cur
		}
		return next
	}
	return Vector4{pick(v.X, o.X), pick(v.Y, o.Y), pick(v.Z, o.Z), pick(v.W, o.W)}
}

func (v Vector4) String() string {
	return fmt.Sprintf("(X %.3f, Y %.3f, Z %.3f, D %.3f)", v.X, v.Y, v.Z, v.W)
}
