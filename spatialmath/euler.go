// Package spatialmath defines the pose types produced by the kinematics packages and the
// rotation math used to extract them from homogeneous transforms.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/kinecalc/utils"
)

// gimbalLockEpsilon is how close cos(pitch) may get to zero before yaw and roll stop being
// independent.
const gimbalLockEpsilon = 1e-9

// EulerAngles are three angles (in radians) used to represent the rotation of an object in 3D
// Euclidean space, applied in ZYX order: yaw about z, then pitch about the new y, then roll about
// the new x.
type EulerAngles struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// NewEulerAnglesFromTransform extracts ZYX Euler angles from the rotation block R of a 4x4
// homogeneous transform:
//
//	yaw   = atan2(R10, R00)
//	pitch = atan2(-R20, sqrt(R21² + R22²))
//	roll  = atan2(R21, R22)
//
// The extraction is degenerate at pitch = ±90° (gimbal lock); yaw and roll are then only
// defined up to their sum or difference and the values returned depend on rounding noise.
func NewEulerAnglesFromTransform(m mgl64.Mat4) *EulerAngles {
	r21, r22 := m.At(2, 1), m.At(2, 2)
	return &EulerAngles{
		Yaw:   math.Atan2(m.At(1, 0), m.At(0, 0)),
		Pitch: math.Atan2(-m.At(2, 0), math.Sqrt(utils.Square(r21)+utils.Square(r22))),
		Roll:  math.Atan2(r21, r22),
	}
}

// Degrees returns yaw, pitch and roll in degrees.
func (ea *EulerAngles) Degrees() (yaw, pitch, roll float64) {
	return utils.RadToDeg(ea.Yaw), utils.RadToDeg(ea.Pitch), utils.RadToDeg(ea.Roll)
}

// IsGimbalLocked reports whether pitch is close enough to ±90° that yaw and roll are not
// independently recoverable.
func (ea *EulerAngles) IsGimbalLocked() bool {
	return math.Abs(math.Cos(ea.Pitch)) < gimbalLockEpsilon
}

// Quaternion returns the unit quaternion qz(yaw)·qy(pitch)·qx(roll).
func (ea *EulerAngles) Quaternion() quat.Number {
	qx := quat.Number{Real: math.Cos(ea.Roll / 2), Imag: math.Sin(ea.Roll / 2)}
	qy := quat.Number{Real: math.Cos(ea.Pitch / 2), Jmag: math.Sin(ea.Pitch / 2)}
	qz := quat.Number{Real: math.Cos(ea.Yaw / 2), Kmag: math.Sin(ea.Yaw / 2)}
	return quat.Mul(quat.Mul(qz, qy), qx)
}

func (ea *EulerAngles) String() string {
	yaw, pitch, roll := ea.Degrees()
	return fmt.Sprintf("Yaw = %.2f°, Pitch = %.2f°, Roll = %.2f°", yaw, pitch, roll)
}

// QuaternionFromTransform returns the rotation of a homogeneous transform as a gonum quaternion. It
// stays well defined at gimbal lock, where the Euler angles do not.
func QuaternionFromTransform(m mgl64.Mat4) quat.Number {
	q := mgl64.Mat4ToQuat(m)
	return quat.Number{Real: q.W, Imag: q.X(), Jmag: q.Y(), Kmag: q.Z()}
}
