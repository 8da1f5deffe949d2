package mavros_msgs

import (
	"bytes"
	"testing"

	"github.com/edwinhayes/lio2px4/msgs/std_msgs"
	"github.com/edwinhayes/lio2px4/ros"
	"github.com/google/go-cmp/cmp"
)

func TestStateRoundTrip(t *testing.T) {
	want := &State{
		Header:       std_msgs.Header{Seq: 7, FrameId: ""},
		Connected:    true,
		Armed:        false,
		Guided:       true,
		ManualInput:  true,
		Mode:         "OFFBOARD",
		SystemStatus: 4,
	}
	var buf bytes.Buffer
	if err := want.Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	got := MsgState.NewMessage().(*State)
	if err := got.Deserialize(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got, timeComparer); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStateRejectsOversizedMode(t *testing.T) {
	var buf bytes.Buffer
	(&State{Mode: "MANUAL"}).Serialize(&buf)
	data := buf.Bytes()
	// header is 16 bytes, then four bools; corrupt the mode length.
	data[20] = 0xff
	if err := new(State).Deserialize(bytes.NewReader(data)); err == nil {
		t.Error("Deserialize accepted a mode longer than the frame")
	}
}

var timeComparer = cmp.Comparer(func(a, b ros.Time) bool {
	return a.Cmp(b) == 0
})
