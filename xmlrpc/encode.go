// Package xmlrpc implements the subset of XML-RPC spoken by the ROS master
// and slave APIs.
package xmlrpc

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"reflect"
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

func xmlEscape(s string) string {
	var buffer bytes.Buffer
	xml.EscapeText(&buffer, []byte(s))
	return buffer.String()
}

// encodeValue writes the typed body of a <value> element. A nil value
// produces an empty body, which decodes as an empty string.
func encodeValue(buf *bytes.Buffer, value interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		buf.WriteString("<base64>")
		buf.WriteString(base64.StdEncoding.EncodeToString(v))
		buf.WriteString("</base64>")
		return nil
	case bool:
		if v {
			buf.WriteString("<boolean>1</boolean>")
		} else {
			buf.WriteString("<boolean>0</boolean>")
		}
		return nil
	case string:
		buf.WriteString("<string>")
		buf.WriteString(xmlEscape(v))
		buf.WriteString("</string>")
		return nil
	}

	val := reflect.ValueOf(value)
	switch val.Kind() {
	case reflect.Bool:
		return encodeValue(buf, val.Bool())
	case reflect.String:
		return encodeValue(buf, val.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString("<int>")
		buf.WriteString(strconv.FormatInt(val.Int(), 10))
		buf.WriteString("</int>")
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		buf.WriteString("<int>")
		buf.WriteString(strconv.FormatUint(val.Uint(), 10))
		buf.WriteString("</int>")
	case reflect.Float32, reflect.Float64:
		buf.WriteString("<double>")
		buf.WriteString(strconv.FormatFloat(val.Float(), 'g', -1, 64))
		buf.WriteString("</double>")
	case reflect.Array, reflect.Slice:
		buf.WriteString("<array><data>")
		for i := 0; i < val.Len(); i++ {
			buf.WriteString("<value>")
			if err := encodeValue(buf, val.Index(i).Interface()); err != nil {
				return err
			}
			buf.WriteString("</value>")
		}
		buf.WriteString("</data></array>")
	case reflect.Map:
		if val.Type().Key().Kind() != reflect.String {
			return errors.Errorf("map key must be string, got %s", val.Type().Key())
		}
		keys := make([]string, 0, val.Len())
		for _, k := range val.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		buf.WriteString("<struct>")
		for _, k := range keys {
			buf.WriteString("<member><name>")
			buf.WriteString(xmlEscape(k))
			buf.WriteString("</name><value>")
			if err := encodeValue(buf, val.MapIndex(reflect.ValueOf(k).Convert(val.Type().Key())).Interface()); err != nil {
				return err
			}
			buf.WriteString("</value></member>")
		}
		buf.WriteString("</struct>")
	default:
		return errors.Errorf("cannot encode %T as an XML-RPC value", value)
	}
	return nil
}

func encodeRequest(buf *bytes.Buffer, method string, args ...interface{}) error {
	buf.WriteString(xml.Header)
	buf.WriteString("<methodCall><methodName>")
	buf.WriteString(xmlEscape(method))
	buf.WriteString("</methodName><params>")
	for _, arg := range args {
		buf.WriteString("<param><value>")
		if err := encodeValue(buf, arg); err != nil {
			return errors.Wrapf(err, "encode argument of %s", method)
		}
		buf.WriteString("</value></param>")
	}
	buf.WriteString("</params></methodCall>")
	return nil
}

func encodeResponse(buf *bytes.Buffer, value interface{}) error {
	buf.WriteString(xml.Header)
	buf.WriteString("<methodResponse><params><param><value>")
	if err := encodeValue(buf, value); err != nil {
		return err
	}
	buf.WriteString("</value></param></params></methodResponse>")
	return nil
}

func encodeFault(buf *bytes.Buffer, fault *Fault) error {
	buf.WriteString(xml.Header)
	buf.WriteString("<methodResponse><fault><value>")
	members := map[string]interface{}{
		"faultCode":   fault.Code,
		"faultString": fault.String,
	}
	if err := encodeValue(buf, members); err != nil {
		return err
	}
	buf.WriteString("</value></fault></methodResponse>")
	return nil
}
