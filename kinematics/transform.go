// Package kinematics implements forward kinematics for a serial arm described by
// Denavit-Hartenberg parameters.
package kinematics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"go.viam.com/kinecalc/referenceframe"
	"go.viam.com/kinecalc/utils"
)

// DHTransform returns the homogeneous transform of one link using the standard DH convention:
// a rotation of (jointAngle + thetaOffset) about z and a translation d along z, followed by a
// translation a along x and a rotation alpha about x. Angles are in degrees.
//
//	[ cosθ  -sinθ·cosα   sinθ·sinα  a·cosθ ]
//	[ sinθ   cosθ·cosα  -cosθ·sinα  a·sinθ ]
//	[  0       sinα        cosα       d    ]
//	[  0        0           0         1    ]
func DHTransform(jointAngle, d, a, alpha, thetaOffset float64) mgl64.Mat4 {
	theta := utils.DegToRad(jointAngle + thetaOffset)
	alphaRad := utils.DegToRad(alpha)
	ct, st := math.Cos(theta), math.Sin(theta)
	ca, sa := math.Cos(alphaRad), math.Sin(alphaRad)

	m := mgl64.Ident4()
	m.Set(0, 0, ct)
	m.Set(0, 1, -st*ca)
	m.Set(0, 2, st*sa)
	m.Set(0, 3, a*ct)

	m.Set(1, 0, st)
	m.Set(1, 1, ct*ca)
	m.Set(1, 2, -ct*sa)
	m.Set(1, 3, a*st)

	m.Set(2, 0, 0)
	m.Set(2, 1, sa)
	m.Set(2, 2, ca)
	m.Set(2, 3, d)
	return m
}

// LinkTransform is DHTransform for a DH record.
func LinkTransform(p referenceframe.DHParam, jointAngle float64) mgl64.Mat4 {
	return DHTransform(jointAngle, p.D, p.A, p.Alpha, p.Offset)
}
