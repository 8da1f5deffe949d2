package msgspec

import (
	"testing"

	"github.com/edwinhayes/lio2px4/msgs/geometry_msgs"
	"github.com/edwinhayes/lio2px4/msgs/mavros_msgs"
	"github.com/edwinhayes/lio2px4/msgs/nav_msgs"
	"github.com/edwinhayes/lio2px4/msgs/std_msgs"
	"github.com/edwinhayes/lio2px4/ros"
)

func TestVerifyMessageTypes(t *testing.T) {
	types := []ros.MessageType{
		std_msgs.MsgHeader,
		geometry_msgs.MsgPoint,
		geometry_msgs.MsgQuaternion,
		geometry_msgs.MsgVector3,
		geometry_msgs.MsgPose,
		geometry_msgs.MsgTwist,
		geometry_msgs.MsgPoseWithCovariance,
		geometry_msgs.MsgTwistWithCovariance,
		nav_msgs.MsgOdometry,
		mavros_msgs.MsgState,
	}
	for _, msgType := range types {
		if err := Verify(msgType); err != nil {
			t.Error(err)
		}
	}
}

func TestMD5Text(t *testing.T) {
	ctx := NewContext()
	if err := ctx.Load("test_msgs/Stamped", "Header header # comment\nfloat64[3] xyz\nuint8 MODE=2 # two\nstring NAME=a # b\n"+
		separator+"\nMSG: std_msgs/Header\nuint32 seq\ntime stamp\nstring frame_id\n"); err != nil {
		t.Fatal(err)
	}
	text, err := ctx.MD5Text("test_msgs/Stamped")
	if err != nil {
		t.Fatal(err)
	}
	expected := "uint8 MODE=2\nstring NAME=a # b\n2176decaecbce78abc3b96ef049fabed header\nfloat64[3] xyz"
	if text != expected {
		t.Errorf("MD5Text() = %q, want %q", text, expected)
	}
}

func TestParseErrors(t *testing.T) {
	definitions := []string{
		"float64[ x",
		"float64[-1] x",
		"time T=3",
		"Point/Nested/Deep p",
		"int32 bad-name",
	}
	for _, text := range definitions {
		if _, err := Parse("test_msgs/Bad", text); err == nil {
			t.Errorf("Parse(%q) succeeded", text)
		}
	}
	if _, err := Parse("NoPackage", "int32 x"); err == nil {
		t.Error("Parse accepted a name without package")
	}
}

func TestMissingDependency(t *testing.T) {
	ctx := NewContext()
	if err := ctx.Load("test_msgs/Outer", "test_msgs/Inner inner\n"); err != nil {
		t.Fatal(err)
	}
	if _, err := ctx.MD5Sum("test_msgs/Outer"); err == nil {
		t.Error("MD5Sum succeeded without the nested definition")
	}
}
