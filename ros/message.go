package ros

import (
	"bytes"
)

// MessageType describes a ROS message definition.
type MessageType interface {
	Text() string
	MD5Sum() string
	Name() string
	NewMessage() Message
}

// Message is a value that can be written to and read from the TCPROS wire.
type Message interface {
	Type() MessageType
	Serialize(buf *bytes.Buffer) error
	Deserialize(buf *bytes.Reader) error
}
