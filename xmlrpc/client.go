package xmlrpc

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Fault is an XML-RPC fault response.
type Fault struct {
	Code   int
	String string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("xmlrpc fault %d: %s", f.Code, f.String)
}

func newFault(v interface{}) error {
	m, ok := v.(map[string]interface{})
	if !ok {
		return errors.New("malformed xmlrpc fault")
	}
	code, ok := m["faultCode"].(int32)
	if !ok {
		return errors.New("malformed xmlrpc fault: faultCode is not an int")
	}
	s, _ := m["faultString"].(string)
	return &Fault{Code: int(code), String: s}
}

// DefaultTimeout bounds a single call made through Call.
const DefaultTimeout = 5 * time.Second

var client = &http.Client{}

// Call invokes method on the XML-RPC server at url.
func Call(url string, method string, args ...interface{}) (interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	return CallContext(ctx, url, method, args...)
}

// CallContext is Call with caller-controlled cancellation.
func CallContext(ctx context.Context, url string, method string, args ...interface{}) (interface{}, error) {
	var buf bytes.Buffer
	if err := encodeRequest(&buf, method, args...); err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "text/xml")

	res, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s on %s", method, url)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("call %s on %s: http status %s", method, url, res.Status)
	}

	result, err := decodeResponse(res.Body)
	if err != nil {
		if _, ok := err.(*Fault); ok {
			return nil, err
		}
		return nil, errors.Wrapf(err, "parse response of %s", method)
	}
	return result, nil
}
