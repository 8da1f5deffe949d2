package ros

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/edwinhayes/lio2px4/xmlrpc"
)

type testStringType struct{}

func (testStringType) Text() string        { return "string data\n" }
func (testStringType) MD5Sum() string      { return "992ce8a1687cec8c8bd883ec73ca41d1" }
func (testStringType) Name() string        { return "std_msgs/String" }
func (testStringType) NewMessage() Message { return &testString{} }

type testString struct {
	Data string
}

func (m *testString) Type() MessageType { return testStringType{} }

func (m *testString) Serialize(buf *bytes.Buffer) error {
	binary.Write(buf, binary.LittleEndian, uint32(len(m.Data)))
	buf.WriteString(m.Data)
	return nil
}

func (m *testString) Deserialize(buf *bytes.Reader) error {
	var size uint32
	if err := binary.Read(buf, binary.LittleEndian, &size); err != nil {
		return err
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(buf, data); err != nil {
		return err
	}
	m.Data = string(data)
	return nil
}

// fakeMaster implements the parts of the master API a node talks to.
type fakeMaster struct {
	mu           sync.Mutex
	params       map[string]interface{}
	publishers   map[string][]string
	subscribers  map[string][]string
	unregistered []string
	server       *httptest.Server
}

func newFakeMaster(t *testing.T) *fakeMaster {
	m := &fakeMaster{
		params:      make(map[string]interface{}),
		publishers:  make(map[string][]string),
		subscribers: make(map[string][]string),
	}
	ok := func(v interface{}) interface{} { return buildRosAPIResult(APIStatusSuccess, "", v) }
	methods := map[string]xmlrpc.Method{
		"registerPublisher": func(callerID, topic, topicType, callerAPI string) (interface{}, error) {
			m.mu.Lock()
			m.publishers[topic] = append(m.publishers[topic], callerAPI)
			pubs := toInterfaces(m.publishers[topic])
			subs := append([]string(nil), m.subscribers[topic]...)
			m.mu.Unlock()
			for _, uri := range subs {
				go callRosAPI(uri, "publisherUpdate", "/master", topic, pubs)
			}
			return ok(toInterfaces(subs)), nil
		},
		"registerSubscriber": func(callerID, topic, topicType, callerAPI string) (interface{}, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.subscribers[topic] = append(m.subscribers[topic], callerAPI)
			return ok(toInterfaces(m.publishers[topic])), nil
		},
		"unregisterPublisher": func(callerID, topic, callerAPI string) (interface{}, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.unregistered = append(m.unregistered, "pub:"+topic)
			return ok(int32(1)), nil
		},
		"unregisterSubscriber": func(callerID, topic, callerAPI string) (interface{}, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.unregistered = append(m.unregistered, "sub:"+topic)
			return ok(int32(1)), nil
		},
		"setParam": func(callerID, key string, value interface{}) (interface{}, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.params[key] = value
			return ok(int32(0)), nil
		},
		"getParam": func(callerID, key string) (interface{}, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			v, found := m.params[key]
			if !found {
				return buildRosAPIResult(APIStatusError, "Parameter ["+key+"] is not set", int32(0)), nil
			}
			return ok(v), nil
		},
		"hasParam": func(callerID, key string) (interface{}, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			_, found := m.params[key]
			return ok(found), nil
		},
		"deleteParam": func(callerID, key string) (interface{}, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.params, key)
			return ok(int32(0)), nil
		},
	}
	m.server = httptest.NewServer(xmlrpc.NewHandler(methods))
	t.Cleanup(m.server.Close)
	return m
}

func (m *fakeMaster) unregisteredTopics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.unregistered...)
}

func toInterfaces(xs []string) []interface{} {
	result := make([]interface{}, len(xs))
	for i, x := range xs {
		result[i] = x
	}
	return result
}

func newTestNode(t *testing.T, master *fakeMaster, name string, args ...string) Node {
	args = append(args, "__ip:=127.0.0.1")
	node, err := NewNode(name, args, WithMasterURI(master.server.URL), WithLogger(NewLogger(io.Discard)))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(node.Shutdown)
	return node
}

func TestNewNodeRequiresMaster(t *testing.T) {
	t.Setenv("ROS_MASTER_URI", "")
	if _, err := NewNode("/orphan", nil, WithLogger(NewLogger(io.Discard))); err == nil {
		t.Error("NewNode without a master should fail")
	}
}

func TestNodeNameAndArgs(t *testing.T) {
	master := newFakeMaster(t)
	node := newTestNode(t, master, "relay", "__ns:=/uav1", "--verbose", "_rate:=5")

	if node.Name() != "/uav1/relay" {
		t.Errorf("Name() = %s, want /uav1/relay", node.Name())
	}
	rest := node.NonRosArgs()
	if len(rest) != 1 || rest[0] != "--verbose" {
		t.Errorf("NonRosArgs() = %v", rest)
	}
	v, err := node.GetParam("~rate")
	if err != nil {
		t.Fatal(err)
	}
	if v != int32(5) {
		t.Errorf("~rate = %#v, want int32(5)", v)
	}
}

func TestAnonymousNodeName(t *testing.T) {
	master := newFakeMaster(t)
	node, err := NewNode("/relay", []string{"__ip:=127.0.0.1"},
		WithMasterURI(master.server.URL), WithLogger(NewLogger(io.Discard)), Anonymous())
	if err != nil {
		t.Fatal(err)
	}
	defer node.Shutdown()
	if len(node.Name()) != len("/relay_")+12 {
		t.Errorf("anonymous name %s has unexpected length", node.Name())
	}
}

func TestNodeParams(t *testing.T) {
	master := newFakeMaster(t)
	node := newTestNode(t, master, "/params")

	if err := node.SetParam("~policy", "axis-remap"); err != nil {
		t.Fatal(err)
	}
	has, err := node.HasParam("/params/policy")
	if err != nil || !has {
		t.Fatalf("HasParam = %v, %v", has, err)
	}
	v, err := node.GetParam("~policy")
	if err != nil || v != "axis-remap" {
		t.Errorf("GetParam = %v, %v", v, err)
	}
	if err := node.DeleteParam("~policy"); err != nil {
		t.Fatal(err)
	}
	if _, err := node.GetParam("~policy"); err == nil {
		t.Error("GetParam after DeleteParam should fail")
	}
}

func TestNewSubscriberRejectsBadCallback(t *testing.T) {
	master := newFakeMaster(t)
	node := newTestNode(t, master, "/bad")

	callbacks := []interface{}{
		42,
		func(a, b, c int) {},
		func(x int) {},
		func(m *testString, x int) {},
	}
	for _, cb := range callbacks {
		if _, err := node.NewSubscriber("chatter", testStringType{}, cb); err == nil {
			t.Errorf("callback %T should be rejected", cb)
		}
	}
	if _, err := node.NewSubscriber("bad name!", testStringType{}, func() {}); err == nil {
		t.Error("invalid topic name should be rejected")
	}
}

func TestPublishSubscribeLoopback(t *testing.T) {
	master := newFakeMaster(t)
	talker := newTestNode(t, master, "/talker")
	listener := newTestNode(t, master, "/listener")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listener.Spin(ctx)

	received := make(chan string, 10)
	events := make(chan MessageEvent, 10)
	_, err := listener.NewSubscriber("chatter", testStringType{}, func(msg *testString, event MessageEvent) {
		received <- msg.Data
		events <- event
	})
	if err != nil {
		t.Fatal(err)
	}
	pub, err := talker.NewPublisher("chatter", testStringType{}, 10)
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for pub.GetNumSubscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never connected")
		}
		time.Sleep(10 * time.Millisecond)
	}
	// The session accepts messages once its header exchange is done;
	// keep publishing until one arrives.
	for {
		if err := pub.Publish(&testString{Data: "hello"}); err != nil {
			t.Fatal(err)
		}
		select {
		case data := <-received:
			if data != "hello" {
				t.Errorf("received %q, want hello", data)
			}
			event := <-events
			if event.PublisherName != "/talker" {
				t.Errorf("PublisherName = %s, want /talker", event.PublisherName)
			}
			return
		case <-time.After(50 * time.Millisecond):
		}
		if time.Now().After(deadline) {
			t.Fatal("no message received")
		}
	}
}

func TestShutdownUnregisters(t *testing.T) {
	master := newFakeMaster(t)
	node := newTestNode(t, master, "/closing")

	pub, err := node.NewPublisher("out", testStringType{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := node.NewSubscriber("in", testStringType{}, func(*testString) {}); err != nil {
		t.Fatal(err)
	}
	node.Shutdown()

	if node.OK() {
		t.Error("node is OK after Shutdown")
	}
	select {
	case <-node.Done():
	default:
		t.Error("Done is not closed after Shutdown")
	}
	if err := pub.Publish(&testString{Data: "late"}); err != ErrPublisherClosed {
		t.Errorf("Publish after Shutdown = %v, want ErrPublisherClosed", err)
	}
	got := map[string]bool{}
	for _, u := range master.unregisteredTopics() {
		got[u] = true
	}
	if !got["pub:/out"] || !got["sub:/in"] {
		t.Errorf("unregistered = %v", master.unregisteredTopics())
	}
}
