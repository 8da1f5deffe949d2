package ros

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// maxHeaderSize guards against reading garbage as a header length.
const maxHeaderSize = 1 << 20

type header struct {
	key   string
	value string
}

func headerMap(headers []header) map[string]string {
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		m[h.key] = h.value
	}
	return m
}

// readConnectionHeader reads a TCPROS connection header: a little endian
// uint32 total length followed by length-prefixed "key=value" fields.
func readConnectionHeader(r io.Reader) ([]header, error) {
	var headerSize uint32
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, errors.Wrap(err, "read header size")
	}
	if headerSize > maxHeaderSize {
		return nil, errors.Errorf("header size %d exceeds limit", headerSize)
	}
	buf := make([]byte, int(headerSize))
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrap(err, "read header")
	}

	var headers []header
	reader := bytes.NewReader(buf)
	for reader.Len() > 0 {
		var size uint32
		if err := binary.Read(reader, binary.LittleEndian, &size); err != nil {
			return nil, errors.Wrap(err, "read field size")
		}
		if int(size) > reader.Len() {
			return nil, errors.New("header length overrun")
		}
		line := make([]byte, int(size))
		reader.Read(line)
		sep := bytes.IndexByte(line, '=')
		if sep < 0 {
			return nil, errors.Errorf("malformed header field %q", line)
		}
		headers = append(headers, header{string(line[:sep]), string(line[sep+1:])})
	}
	return headers, nil
}

func writeConnectionHeader(headers []header, w io.Writer) error {
	var buf bytes.Buffer
	var headerSize int
	for _, h := range headers {
		headerSize += 4 + len(h.key) + 1 + len(h.value)
	}
	binary.Write(&buf, binary.LittleEndian, uint32(headerSize))
	for _, h := range headers {
		binary.Write(&buf, binary.LittleEndian, uint32(len(h.key)+1+len(h.value)))
		buf.WriteString(h.key)
		buf.WriteByte('=')
		buf.WriteString(h.value)
	}
	_, err := buf.WriteTo(w)
	return errors.Wrap(err, "write header")
}
