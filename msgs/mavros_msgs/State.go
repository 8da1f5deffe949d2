// Package mavros_msgs is automatically generated from the message definition "mavros_msgs/State.msg"
package mavros_msgs

import (
	"bytes"
	"encoding/binary"

	"github.com/edwinhayes/lio2px4/msgs/std_msgs"
	"github.com/edwinhayes/lio2px4/ros"
)

const (
	MODE_APM_PLANE_MANUAL        string = "MANUAL"
	MODE_APM_PLANE_CIRCLE        string = "CIRCLE"
	MODE_APM_PLANE_STABILIZE     string = "STABILIZE"
	MODE_APM_PLANE_TRAINING      string = "TRAINING"
	MODE_APM_PLANE_ACRO          string = "ACRO"
	MODE_APM_PLANE_FBWA          string = "FBWA"
	MODE_APM_PLANE_FBWB          string = "FBWB"
	MODE_APM_PLANE_CRUISE        string = "CRUISE"
	MODE_APM_PLANE_AUTOTUNE      string = "AUTOTUNE"
	MODE_APM_PLANE_AUTO          string = "AUTO"
	MODE_APM_PLANE_RTL           string = "RTL"
	MODE_APM_PLANE_LOITER        string = "LOITER"
	MODE_APM_PLANE_LAND          string = "LAND"
	MODE_APM_PLANE_GUIDED        string = "GUIDED"
	MODE_APM_PLANE_INITIALISING  string = "INITIALISING"
	MODE_APM_PLANE_QSTABILIZE    string = "QSTABILIZE"
	MODE_APM_PLANE_QHOVER        string = "QHOVER"
	MODE_APM_PLANE_QLOITER       string = "QLOITER"
	MODE_APM_PLANE_QLAND         string = "QLAND"
	MODE_APM_PLANE_QRTL          string = "QRTL"
	MODE_APM_COPTER_STABILIZE    string = "STABILIZE"
	MODE_APM_COPTER_ACRO         string = "ACRO"
	MODE_APM_COPTER_ALT_HOLD     string = "ALT_HOLD"
	MODE_APM_COPTER_AUTO         string = "AUTO"
	MODE_APM_COPTER_GUIDED       string = "GUIDED"
	MODE_APM_COPTER_LOITER       string = "LOITER"
	MODE_APM_COPTER_RTL          string = "RTL"
	MODE_APM_COPTER_CIRCLE       string = "CIRCLE"
	MODE_APM_COPTER_POSITION     string = "POSITION"
	MODE_APM_COPTER_LAND         string = "LAND"
	MODE_APM_COPTER_OF_LOITER    string = "OF_LOITER"
	MODE_APM_COPTER_DRIFT        string = "DRIFT"
	MODE_APM_COPTER_SPORT        string = "SPORT"
	MODE_APM_COPTER_FLIP         string = "FLIP"
	MODE_APM_COPTER_AUTOTUNE     string = "AUTOTUNE"
	MODE_APM_COPTER_POSHOLD      string = "POSHOLD"
	MODE_APM_COPTER_BRAKE        string = "BRAKE"
	MODE_APM_COPTER_THROW        string = "THROW"
	MODE_APM_COPTER_AVOID_ADSB   string = "AVOID_ADSB"
	MODE_APM_COPTER_GUIDED_NOGPS string = "GUIDED_NOGPS"
	MODE_APM_ROVER_MANUAL        string = "MANUAL"
	MODE_APM_ROVER_LEARNING      string = "LEARNING"
	MODE_APM_ROVER_STEERING      string = "STEERING"
	MODE_APM_ROVER_HOLD          string = "HOLD"
	MODE_APM_ROVER_AUTO          string = "AUTO"
	MODE_APM_ROVER_RTL           string = "RTL"
	MODE_APM_ROVER_GUIDED        string = "GUIDED"
	MODE_APM_ROVER_INITIALISING  string = "INITIALISING"
	MODE_PX4_MANUAL              string = "MANUAL"
	MODE_PX4_ACRO                string = "ACRO"
	MODE_PX4_ALTITUDE            string = "ALTCTL"
	MODE_PX4_POSITION            string = "POSCTL"
	MODE_PX4_OFFBOARD            string = "OFFBOARD"
	MODE_PX4_STABILIZED          string = "STABILIZED"
	MODE_PX4_RATTITUDE           string = "RATTITUDE"
	MODE_PX4_MISSION             string = "AUTO.MISSION"
	MODE_PX4_LOITER              string = "AUTO.LOITER"
	MODE_PX4_RTL                 string = "AUTO.RTL"
	MODE_PX4_LAND                string = "AUTO.LAND"
	MODE_PX4_RTGS                string = "AUTO.RTGS"
	MODE_PX4_READY               string = "AUTO.READY"
	MODE_PX4_TAKEOFF             string = "AUTO.TAKEOFF"
)

type _MsgState struct {
	text   string
	name   string
	md5sum string
}

func (t *_MsgState) Text() string {
	return t.text
}

func (t *_MsgState) Name() string {
	return t.name
}

func (t *_MsgState) MD5Sum() string {
	return t.md5sum
}

func (t *_MsgState) NewMessage() ros.Message {
	return new(State)
}

var (
	MsgState = &_MsgState{
		`# Current autopilot state
#
# Known modes listed here:
# http://wiki.ros.org/mavros/CustomModes
#
# For system_status values
# see https://mavlink.io/en/messages/common.html#MAV_STATE
#

std_msgs/Header header
bool connected
bool armed
bool guided
bool manual_input
string mode
uint8 system_status

string MODE_APM_PLANE_MANUAL = MANUAL
string MODE_APM_PLANE_CIRCLE = CIRCLE
string MODE_APM_PLANE_STABILIZE = STABILIZE
string MODE_APM_PLANE_TRAINING = TRAINING
string MODE_APM_PLANE_ACRO = ACRO
string MODE_APM_PLANE_FBWA = FBWA
string MODE_APM_PLANE_FBWB = FBWB
string MODE_APM_PLANE_CRUISE = CRUISE
string MODE_APM_PLANE_AUTOTUNE = AUTOTUNE
string MODE_APM_PLANE_AUTO = AUTO
string MODE_APM_PLANE_RTL = RTL
string MODE_APM_PLANE_LOITER = LOITER
string MODE_APM_PLANE_LAND = LAND
string MODE_APM_PLANE_GUIDED = GUIDED
string MODE_APM_PLANE_INITIALISING = INITIALISING
string MODE_APM_PLANE_QSTABILIZE = QSTABILIZE
string MODE_APM_PLANE_QHOVER = QHOVER
string MODE_APM_PLANE_QLOITER = QLOITER
string MODE_APM_PLANE_QLAND = QLAND
string MODE_APM_PLANE_QRTL = QRTL

string MODE_APM_COPTER_STABILIZE = STABILIZE
string MODE_APM_COPTER_ACRO = ACRO
string MODE_APM_COPTER_ALT_HOLD = ALT_HOLD
string MODE_APM_COPTER_AUTO = AUTO
string MODE_APM_COPTER_GUIDED = GUIDED
string MODE_APM_COPTER_LOITER = LOITER
string MODE_APM_COPTER_RTL = RTL
string MODE_APM_COPTER_CIRCLE = CIRCLE
string MODE_APM_COPTER_POSITION = POSITION
string MODE_APM_COPTER_LAND = LAND
string MODE_APM_COPTER_OF_LOITER = OF_LOITER
string MODE_APM_COPTER_DRIFT = DRIFT
string MODE_APM_COPTER_SPORT = SPORT
string MODE_APM_COPTER_FLIP = FLIP
string MODE_APM_COPTER_AUTOTUNE = AUTOTUNE
string MODE_APM_COPTER_POSHOLD = POSHOLD
string MODE_APM_COPTER_BRAKE = BRAKE
string MODE_APM_COPTER_THROW = THROW
string MODE_APM_COPTER_AVOID_ADSB = AVOID_ADSB
string MODE_APM_COPTER_GUIDED_NOGPS = GUIDED_NOGPS

string MODE_APM_ROVER_MANUAL = MANUAL
string MODE_APM_ROVER_LEARNING = LEARNING
string MODE_APM_ROVER_STEERING = STEERING
string MODE_APM_ROVER_HOLD = HOLD
string MODE_APM_ROVER_AUTO = AUTO
string MODE_APM_ROVER_RTL = RTL
string MODE_APM_ROVER_GUIDED = GUIDED
string MODE_APM_ROVER_INITIALISING = INITIALISING

string MODE_PX4_MANUAL = MANUAL
string MODE_PX4_ACRO = ACRO
string MODE_PX4_ALTITUDE = ALTCTL
string MODE_PX4_POSITION = POSCTL
string MODE_PX4_OFFBOARD = OFFBOARD
string MODE_PX4_STABILIZED = STABILIZED
string MODE_PX4_RATTITUDE = RATTITUDE
string MODE_PX4_MISSION = AUTO.MISSION
string MODE_PX4_LOITER = AUTO.LOITER
string MODE_PX4_RTL = AUTO.RTL
string MODE_PX4_LAND = AUTO.LAND
string MODE_PX4_RTGS = AUTO.RTGS
string MODE_PX4_READY = AUTO.READY
string MODE_PX4_TAKEOFF = AUTO.TAKEOFF

================================================================================
MSG: std_msgs/Header
# Standard metadata for higher-level stamped data types.
# This is generally used to communicate timestamped data
# in a particular coordinate frame.
#
# sequence ID: consecutively increasing ID
uint32 seq
#Two-integer timestamp that is expressed as:
# * stamp.sec: seconds (stamp_secs) since epoch (in Python the variable is called 'secs')
# * stamp.nsec: nanoseconds since stamp_secs (in Python the variable is called 'nsecs')
# time-handling sugar is provided by the client library
time stamp
#Frame this data is associated with
string frame_id
`,
		"mavros_msgs/State",
		"65cd0a9fff993b062b91e354554ec7e9",
	}
)

type State struct {
	Header       std_msgs.Header `rosmsg:"header:Header"`
	Connected    bool            `rosmsg:"connected:bool"`
	Armed        bool            `rosmsg:"armed:bool"`
	Guided       bool            `rosmsg:"guided:bool"`
	ManualInput  bool            `rosmsg:"manual_input:bool"`
	Mode         string          `rosmsg:"mode:string"`
	SystemStatus uint8           `rosmsg:"system_status:uint8"`
}

func (m *State) Type() ros.MessageType {
	return MsgState
}

func (m *State) Serialize(buf *bytes.Buffer) error {
	if err := m.Header.Serialize(buf); err != nil {
		return err
	}
	binary.Write(buf, binary.LittleEndian, m.Connected)
	binary.Write(buf, binary.LittleEndian, m.Armed)
	binary.Write(buf, binary.LittleEndian, m.Guided)
	binary.Write(buf, binary.LittleEndian, m.ManualInput)
	binary.Write(buf, binary.LittleEndian, uint32(len(m.Mode)))
	buf.WriteString(m.Mode)
	binary.Write(buf, binary.LittleEndian, m.SystemStatus)
	return nil
}

func (m *State) Deserialize(buf *bytes.Reader) error {
	var err error
	if err = m.Header.Deserialize(buf); err != nil {
		return err
	}
	if err = binary.Read(buf, binary.LittleEndian, &m.Connected); err != nil {
		return err
	}
	if err = binary.Read(buf, binary.LittleEndian, &m.Armed); err != nil {
		return err
	}
	if err = binary.Read(buf, binary.LittleEndian, &m.Guided); err != nil {
		return err
	}
	if err = binary.Read(buf, binary.LittleEndian, &m.ManualInput); err != nil {
		return err
	}
	if m.Mode, err = std_msgs.ReadString(buf); err != nil {
		return err
	}
	if err = binary.Read(buf, binary.LittleEndian, &m.SystemStatus); err != nil {
		return err
	}
	return nil
}
