package xmlrpc

import (
	"encoding/base64"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// nextElement returns the next start or end tag, skipping character data,
// comments and processing instructions.
func nextElement(d *xml.Decoder) (xml.Token, error) {
	for {
		token, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			return t, nil
		case xml.EndElement:
			return t, nil
		}
	}
}

func expectStart(d *xml.Decoder, name string) error {
	token, err := nextElement(d)
	if err != nil {
		return err
	}
	start, ok := token.(xml.StartElement)
	if !ok || start.Name.Local != name {
		return errors.Errorf("expected <%s>, got %v", name, token)
	}
	return nil
}

func expectEnd(d *xml.Decoder, name string) error {
	token, err := nextElement(d)
	if err != nil {
		return err
	}
	end, ok := token.(xml.EndElement)
	if !ok || end.Name.Local != name {
		return errors.Errorf("expected </%s>, got %v", name, token)
	}
	return nil
}

// readText collects character data up to the end tag of the current element.
func readText(d *xml.Decoder) (string, error) {
	var b strings.Builder
	for {
		token, err := d.Token()
		if err != nil {
			return "", err
		}
		switch t := token.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			return b.String(), nil
		case xml.StartElement:
			return "", errors.Errorf("unexpected <%s> inside a scalar", t.Name.Local)
		}
	}
}

// decodeValue reads the contents of a <value> element whose start tag has
// already been consumed. On success the matching </value> has been read.
// Untyped content is a string.
func decodeValue(d *xml.Decoder) (interface{}, error) {
	var text strings.Builder
	for {
		token, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := token.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			value, err := decodeTyped(d, t.Name.Local)
			if err != nil {
				return nil, err
			}
			if err := expectEnd(d, "value"); err != nil {
				return nil, err
			}
			return value, nil
		case xml.EndElement:
			return text.String(), nil
		}
	}
}

func decodeTyped(d *xml.Decoder, kind string) (interface{}, error) {
	switch kind {
	case "array":
		return decodeArray(d)
	case "struct":
		return decodeStruct(d)
	case "nil":
		if _, err := readText(d); err != nil {
			return nil, err
		}
		return nil, nil
	}

	text, err := readText(d)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "boolean":
		switch strings.TrimSpace(text) {
		case "1":
			return true, nil
		case "0":
			return false, nil
		}
		return nil, errors.Errorf("invalid boolean %q", text)
	case "i4", "int":
		i, err := strconv.ParseInt(strings.TrimSpace(text), 10, 32)
		if err != nil {
			return nil, errors.Wrap(err, "int")
		}
		return int32(i), nil
	case "i8":
		i, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, "i8")
		}
		return i, nil
	case "double":
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, errors.Wrap(err, "double")
		}
		return f, nil
	case "string":
		return text, nil
	case "base64":
		bs, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
		if err != nil {
			return nil, errors.Wrap(err, "base64")
		}
		return bs, nil
	case "dateTime.iso8601":
		return text, nil
	}
	return nil, errors.Errorf("unsupported value type <%s>", kind)
}

func decodeArray(d *xml.Decoder) (interface{}, error) {
	if err := expectStart(d, "data"); err != nil {
		return nil, err
	}
	values := make([]interface{}, 0)
	for {
		token, err := nextElement(d)
		if err != nil {
			return nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local != "value" {
				return nil, errors.Errorf("unexpected <%s> in array", t.Name.Local)
			}
			v, err := decodeValue(d)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		case xml.EndElement:
			if err := expectEnd(d, "array"); err != nil {
				return nil, err
			}
			return values, nil
		}
	}
}

func decodeStruct(d *xml.Decoder) (interface{}, error) {
	members := make(map[string]interface{})
	for {
		token, err := nextElement(d)
		if err != nil {
			return nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local != "member" {
				return nil, errors.Errorf("unexpected <%s> in struct", t.Name.Local)
			}
			name, value, err := decodeMember(d)
			if err != nil {
				return nil, err
			}
			members[name] = value
		case xml.EndElement:
			return members, nil
		}
	}
}

func decodeMember(d *xml.Decoder) (string, interface{}, error) {
	var name string
	var value interface{}
	for {
		token, err := nextElement(d)
		if err != nil {
			return "", nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "name":
				if name, err = readText(d); err != nil {
					return "", nil, err
				}
			case "value":
				if value, err = decodeValue(d); err != nil {
					return "", nil, err
				}
			default:
				return "", nil, errors.Errorf("unexpected <%s> in member", t.Name.Local)
			}
		case xml.EndElement:
			return name, value, nil
		}
	}
}

func decodeRequest(r io.Reader) (string, []interface{}, error) {
	d := xml.NewDecoder(r)
	if err := expectStart(d, "methodCall"); err != nil {
		return "", nil, err
	}
	if err := expectStart(d, "methodName"); err != nil {
		return "", nil, err
	}
	name, err := readText(d)
	if err != nil {
		return "", nil, err
	}
	name = strings.TrimSpace(name)

	args := make([]interface{}, 0)
	token, err := nextElement(d)
	if err != nil {
		return "", nil, err
	}
	if _, ok := token.(xml.EndElement); ok {
		return name, args, nil
	}
	for {
		token, err := nextElement(d)
		if err != nil {
			return "", nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local != "param" {
				return "", nil, errors.Errorf("unexpected <%s> in params", t.Name.Local)
			}
			if err := expectStart(d, "value"); err != nil {
				return "", nil, err
			}
			v, err := decodeValue(d)
			if err != nil {
				return "", nil, err
			}
			if err := expectEnd(d, "param"); err != nil {
				return "", nil, err
			}
			args = append(args, v)
		case xml.EndElement:
			return name, args, nil
		}
	}
}

// decodeResponse returns the single result of a method response, or a *Fault
// error when the remote end answered with a fault.
func decodeResponse(r io.Reader) (interface{}, error) {
	d := xml.NewDecoder(r)
	if err := expectStart(d, "methodResponse"); err != nil {
		return nil, err
	}
	token, err := nextElement(d)
	if err != nil {
		return nil, err
	}
	start, ok := token.(xml.StartElement)
	if !ok {
		return nil, errors.New("empty method response")
	}
	switch start.Name.Local {
	case "params":
		if err := expectStart(d, "param"); err != nil {
			return nil, err
		}
		if err := expectStart(d, "value"); err != nil {
			return nil, err
		}
		return decodeValue(d)
	case "fault":
		if err := expectStart(d, "value"); err != nil {
			return nil, err
		}
		v, err := decodeValue(d)
		if err != nil {
			return nil, err
		}
		return nil, newFault(v)
	}
	return nil, errors.Errorf("unexpected <%s> in method response", start.Name.Local)
}
