package ros

import (
	"context"
	"time"

	"github.com/edwinhayes/lio2px4/xmlrpc"
	"github.com/pkg/errors"
)

const (
	//APIStatusError is an API call which returned an Error
	APIStatusError = -1
	//APIStatusFailure is a failed API call
	APIStatusFailure = 0
	//APIStatusSuccess is a successful API call
	APIStatusSuccess = 1
)

// apiTimeout bounds master and slave API round trips.
const apiTimeout = 5 * time.Second

//callRosAPI performs an XML-RPC call against the master or another node and
//unpacks the (code, statusMessage, value) triplet of the ROS APIs.
func callRosAPI(calleeURI string, method string, args ...interface{}) (interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
	defer cancel()
	result, err := xmlrpc.CallContext(ctx, calleeURI, method, args...)
	if err != nil {
		return nil, err
	}
	return parseRosAPIResult(method, result)
}

func parseRosAPIResult(method string, result interface{}) (interface{}, error) {
	xs, ok := result.([]interface{})
	if !ok {
		return nil, errors.Errorf("%s: malformed ROS API result", method)
	}
	if len(xs) != 3 {
		return nil, errors.Errorf("%s: malformed ROS API result, length must be 3 but is %d", method, len(xs))
	}
	code, ok := xs[0].(int32)
	if !ok {
		return nil, errors.Errorf("%s: status code is not int", method)
	}
	message, ok := xs[1].(string)
	if !ok {
		return nil, errors.Errorf("%s: status message is not string", method)
	}
	if code != APIStatusSuccess {
		return nil, errors.Errorf("%s failed with code %d: %s", method, code, message)
	}
	return xs[2], nil
}

// Build XMLRPC ready array from ROS API result triplet.
func buildRosAPIResult(code int32, message string, value interface{}) interface{} {
	return []interface{}{code, message, value}
}
