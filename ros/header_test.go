package ros

import (
	"bytes"
	"reflect"
	"testing"
)

func TestConnectionHeaderRoundTrip(t *testing.T) {
	headers := []header{
		{"topic", "/mavros/odometry/out"},
		{"md5sum", "cd5e73d190d741a2f92e81eda573aca7"},
		{"type", "nav_msgs/Odometry"},
		{"callerid", "/lio_2_px4_node"},
		{"message_definition", "a=b\nc=d"},
	}
	var buf bytes.Buffer
	if err := writeConnectionHeader(headers, &buf); err != nil {
		t.Fatal(err)
	}
	decoded, err := readConnectionHeader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(headers, decoded) {
		t.Error(decoded)
	}
	if headerMap(decoded)["message_definition"] != "a=b\nc=d" {
		t.Error(headerMap(decoded))
	}
}

func TestReadConnectionHeaderRejectsOverrun(t *testing.T) {
	// total size 8, first field claims 100 bytes
	raw := []byte{8, 0, 0, 0, 100, 0, 0, 0, 'a', '=', 'b', 'c'}
	if _, err := readConnectionHeader(bytes.NewReader(raw)); err == nil {
		t.Error("expected overrun error")
	}
}

func TestReadConnectionHeaderRejectsMissingSeparator(t *testing.T) {
	raw := []byte{7, 0, 0, 0, 3, 0, 0, 0, 'a', 'b', 'c'}
	if _, err := readConnectionHeader(bytes.NewReader(raw)); err == nil {
		t.Error("expected malformed field error")
	}
}
