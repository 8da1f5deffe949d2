package std_msgs

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// ReadString reads a length-prefixed ROS string.
func ReadString(buf *bytes.Reader) (string, error) {
	var size uint32
	if err := binary.Read(buf, binary.LittleEndian, &size); err != nil {
		return "", err
	}
	if int64(size) > int64(buf.Len()) {
		return "", errors.Errorf("string length %d exceeds remaining %d bytes", size, buf.Len())
	}
	data := make([]byte, int(size))
	if _, err := io.ReadFull(buf, data); err != nil {
		return "", err
	}
	return string(data), nil
}
