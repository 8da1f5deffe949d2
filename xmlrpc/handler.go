package xmlrpc

import (
	"bytes"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"sync"
)

// Method is a function taking XML-RPC decoded arguments and returning
// (interface{}, error).
type Method interface{}

// Handler serves XML-RPC requests by dispatching to registered methods.
type Handler struct {
	mapping map[string]Method
	wait    sync.WaitGroup
}

func NewHandler(mapping map[string]Method) *Handler {
	return &Handler{mapping: mapping}
}

// WaitForShutdown blocks until in-flight requests have been answered.
func (h *Handler) WaitForShutdown() {
	h.wait.Wait()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h.wait.Add(1)
	defer h.wait.Done()

	var buf bytes.Buffer
	result, fault := h.dispatch(req)
	if fault == nil {
		if err := encodeResponse(&buf, result); err != nil {
			buf.Reset()
			fault = &Fault{Code: 1, String: fmt.Sprintf("invalid result: %v", err)}
		}
	}
	if fault != nil {
		encodeFault(&buf, fault)
	}
	w.Header().Set("Content-Type", "text/xml")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}

func (h *Handler) dispatch(req *http.Request) (result interface{}, fault *Fault) {
	name, args, err := decodeRequest(req.Body)
	if err != nil {
		return nil, &Fault{Code: 1, String: "invalid request"}
	}
	method, ok := h.mapping[name]
	if !ok {
		return nil, &Fault{Code: 1, String: fmt.Sprintf("no method named '%s'", name)}
	}

	fun := reflect.ValueOf(method)
	ft := fun.Type()
	if ft.NumIn() != len(args) {
		return nil, &Fault{Code: 1, String: fmt.Sprintf("'%s' takes %d arguments, got %d", name, ft.NumIn(), len(args))}
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		want := ft.In(i)
		if arg == nil {
			in[i] = reflect.Zero(want)
			continue
		}
		v := reflect.ValueOf(arg)
		switch {
		case v.Type().AssignableTo(want):
			in[i] = v
		case isNumeric(v.Kind()) && isNumeric(want.Kind()):
			in[i] = v.Convert(want)
		default:
			return nil, &Fault{Code: 1, String: fmt.Sprintf("'%s' argument %d: cannot use %T as %s", name, i, arg, want)}
		}
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			fault = &Fault{Code: 1, String: fmt.Sprintf("'%s' panicked: %v", name, r)}
		}
	}()
	out := fun.Call(in)
	if len(out) != 2 {
		return nil, &Fault{Code: 1, String: fmt.Sprintf("'%s' returned invalid results", name)}
	}
	if e := out[1].Interface(); e != nil {
		return nil, &Fault{Code: 1, String: fmt.Sprintf("'%s' failed: %v", name, e)}
	}
	return out[0].Interface(), nil
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
