package spatialmath

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/kinecalc/utils"
)

// Pose is the position (mm) and ZYX orientation of a frame relative to the robot base.
type Pose struct {
	Point       r3.Vector
	Orientation *EulerAngles

	// rotation is set when the pose was read from a matrix.
	rotation *quat.Number
}

// NewPose creates a new Pose from a point and orientation.
func NewPose(point r3.Vector, orientation *EulerAngles) *Pose {
	return &Pose{Point: point, Orientation: orientation}
}

// NewPoseFromTransform reads the translation column and the ZYX Euler angles of a homogeneous
// transform.
func NewPoseFromTransform(m mgl64.Mat4) *Pose {
	p := NewPose(r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)}, NewEulerAnglesFromTransform(m))
	q := QuaternionFromTransform(m)
	p.rotation = &q
	return p
}

// Quaternion returns the orientation as a unit quaternion. Poses read from a matrix return the
// matrix rotation, which is exact even when the Euler angles are gimbal locked.
func (p *Pose) Quaternion() quat.Number {
	if p.rotation != nil {
		return *p.rotation
	}
	return p.Orientation.Quaternion()
}

// IsFinite reports whether every component of the pose is a finite number.
func (p *Pose) IsFinite() bool {
	return utils.AllFinite([]float64{
		p.Point.X, p.Point.Y, p.Point.Z,
		p.Orientation.Yaw, p.Orientation.Pitch, p.Orientation.Roll,
	}) < 0
}

// DistanceTo returns the euclidean distance between the positions of two poses.
func (p *Pose) DistanceTo(point r3.Vector) float64 {
	return p.Point.Distance(point)
}

func (p *Pose) String() string {
	return fmt.Sprintf("Position: x = %.2f, y = %.2f, z = %.2f; Orientation: %v",
		p.Point.X, p.Point.Y, p.Point.Z, p.Orientation)
}
