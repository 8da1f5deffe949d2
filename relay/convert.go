package relay

import (
	"math"

	"github.com/edwinhayes/lio2px4/msgs/geometry_msgs"
	"github.com/edwinhayes/lio2px4/msgs/nav_msgs"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// Policy selects how estimates are converted before they reach PX4.
type Policy string

const (
	// PassthroughRelabel copies the estimate and only rewrites the child
	// frame. PX4 compensates the yaw offset through SENS_BOARD_ROT.
	PassthroughRelabel Policy = "passthrough-relabel"
	// AxisRemap converts from FLU/ENU to FRD/NED.
	AxisRemap Policy = "axis-remap"
)

// OrientationMode selects how AxisRemap treats the orientation.
type OrientationMode string

const (
	// OrientationComponent remaps the quaternion like a vector:
	// x'=y, y'=x, z'=-z, w'=w.
	OrientationComponent OrientationMode = "component"
	// OrientationRotation changes basis on both sides of the rotation,
	// q' = q(ENU->NED) * q * q(FRD->FLU), and maps body rates FLU->FRD.
	OrientationRotation OrientationMode = "rotation"
)

// DefaultChildFrame returns the child frame id published under policy.
func DefaultChildFrame(policy Policy) string {
	if policy == AxisRemap {
		return "base_link"
	}
	return "base_link_px4"
}

var (
	enuToNED = quat.Number{Real: 0, Imag: math.Sqrt2 / 2, Jmag: math.Sqrt2 / 2, Kmag: 0}
	frdToFLU = quat.Number{Real: 0, Imag: 1, Jmag: 0, Kmag: 0}
)

// Converter turns LIO-SAM estimates into estimates PX4 accepts. Convert is
// pure and safe for concurrent use.
type Converter struct {
	policy       Policy
	childFrameID string
	orientation  OrientationMode
}

// NewConverter validates its arguments. An empty childFrameID selects the
// policy default and an empty orientation selects OrientationComponent.
func NewConverter(policy Policy, childFrameID string, orientation OrientationMode) (*Converter, error) {
	switch policy {
	case PassthroughRelabel, AxisRemap:
	default:
		return nil, errors.Errorf("unknown conversion policy %q", policy)
	}
	if orientation == "" {
		orientation = OrientationComponent
	}
	switch orientation {
	case OrientationComponent, OrientationRotation:
	default:
		return nil, errors.Errorf("unknown orientation mode %q", orientation)
	}
	if childFrameID == "" {
		childFrameID = DefaultChildFrame(policy)
	}
	return &Converter{policy: policy, childFrameID: childFrameID, orientation: orientation}, nil
}

func (c *Converter) Policy() Policy {
	return c.policy
}

func (c *Converter) ChildFrameID() string {
	return c.childFrameID
}

// Convert returns a converted copy of in; in is not modified.
func (c *Converter) Convert(in *nav_msgs.Odometry) *nav_msgs.Odometry {
	out := *in
	out.ChildFrameId = c.childFrameID
	if c.policy == PassthroughRelabel {
		return &out
	}

	pose := &out.Pose.Pose
	twist := &out.Twist.Twist
	pose.Position = remapPoint(pose.Position)
	switch c.orientation {
	case OrientationRotation:
		pose.Orientation = rotateOrientation(pose.Orientation)
		twist.Linear = bodyFLUToFRD(twist.Linear)
		twist.Angular = bodyFLUToFRD(twist.Angular)
	default:
		pose.Orientation = remapQuaternion(pose.Orientation)
		twist.Linear = remapVector(twist.Linear)
		twist.Angular = remapVector(twist.Angular)
	}
	return &out
}

func remapPoint(p geometry_msgs.Point) geometry_msgs.Point {
	return geometry_msgs.Point{X: p.Y, Y: p.X, Z: -p.Z}
}

func remapVector(v geometry_msgs.Vector3) geometry_msgs.Vector3 {
	return geometry_msgs.Vector3{X: v.Y, Y: v.X, Z: -v.Z}
}

func remapQuaternion(q geometry_msgs.Quaternion) geometry_msgs.Quaternion {
	return geometry_msgs.Quaternion{X: q.Y, Y: q.X, Z: -q.Z, W: q.W}
}

// bodyFLUToFRD is a half turn about the forward axis.
func bodyFLUToFRD(v geometry_msgs.Vector3) geometry_msgs.Vector3 {
	return geometry_msgs.Vector3{X: v.X, Y: -v.Y, Z: -v.Z}
}

// rotateOrientation re-expresses a FLU body to ENU world rotation as a FRD
// body to NED world rotation. The result is normalized with w >= 0.
func rotateOrientation(q geometry_msgs.Quaternion) geometry_msgs.Quaternion {
	n := quat.Mul(quat.Mul(enuToNED, quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}), frdToFLU)
	if abs := quat.Abs(n); abs > 0 {
		n = quat.Scale(1/abs, n)
	}
	if n.Real < 0 {
		n = quat.Scale(-1, n)
	}
	return geometry_msgs.Quaternion{X: n.Imag, Y: n.Jmag, Z: n.Kmag, W: n.Real}
}
