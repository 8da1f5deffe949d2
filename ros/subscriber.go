package ros

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"reflect"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// maxMessageSize guards against reading garbage as a frame length.
const maxMessageSize = 1 << 28

type messageEvent struct {
	bytes []byte
	event MessageEvent
}

// The subscription object runs in own goroutine (start).
// Do not access pubList or connections from other goroutines.
type defaultSubscriber struct {
	node             *defaultNode
	topic            string
	msgType          MessageType
	pubList          []string
	numPublishers    int
	numMutex         sync.RWMutex
	pubListChan      chan []string
	msgChan          chan messageEvent
	callbacks        []interface{}
	addCallbackChan  chan interface{}
	shutdownChan     chan struct{}
	shutdownOnce     sync.Once
	connections      map[string]chan struct{}
	disconnectedChan chan string
	logger           Logger
}

// checkCallback verifies that callback can be invoked by the dispatcher.
func checkCallback(callback interface{}, msgType MessageType) error {
	fun := reflect.ValueOf(callback)
	if fun.Kind() != reflect.Func {
		return errors.Errorf("callback must be a function, got %T", callback)
	}
	ft := fun.Type()
	if ft.NumIn() > 2 {
		return errors.Errorf("callback takes %d arguments, at most 2 are supported", ft.NumIn())
	}
	if ft.NumIn() >= 1 {
		msgGoType := reflect.TypeOf(msgType.NewMessage())
		if !msgGoType.AssignableTo(ft.In(0)) {
			return errors.Errorf("callback argument %s does not accept %s", ft.In(0), msgGoType)
		}
	}
	if ft.NumIn() == 2 && ft.In(1) != reflect.TypeOf(MessageEvent{}) {
		return errors.Errorf("second callback argument must be ros.MessageEvent, got %s", ft.In(1))
	}
	return nil
}

func newDefaultSubscriber(node *defaultNode, topic string, msgType MessageType, callback interface{}) *defaultSubscriber {
	return &defaultSubscriber{
		node:             node,
		topic:            topic,
		msgType:          msgType,
		msgChan:          make(chan messageEvent, 10),
		pubListChan:      make(chan []string, 10),
		addCallbackChan:  make(chan interface{}, 10),
		shutdownChan:     make(chan struct{}),
		disconnectedChan: make(chan string, 10),
		connections:      make(map[string]chan struct{}),
		callbacks:        []interface{}{callback},
		logger:           node.logger.WithField("topic", topic),
	}
}

func (sub *defaultSubscriber) start(wg *sync.WaitGroup, jobChan chan func()) {
	defer wg.Done()
	logger := sub.logger
	node := sub.node
	logger.Debug("Subscriber goroutine started")
	defer logger.Debug("Subscriber goroutine exit")

	for {
		select {
		case list := <-sub.pubListChan:
			deadPubs := setDifference(sub.pubList, list)
			newPubs := setDifference(list, sub.pubList)
			sub.pubList = list

			for _, pub := range deadPubs {
				if quitChan, ok := sub.connections[pub]; ok {
					close(quitChan)
					delete(sub.connections, pub)
				}
			}
			for _, pub := range newPubs {
				addr, err := requestTCPROS(pub, node.qualifiedName, sub.topic)
				if err != nil {
					logger.Error(err)
					continue
				}
				quitChan := make(chan struct{})
				sub.connections[pub] = quitChan
				conn := &remotePublisherConn{
					sub:      sub,
					pubURI:   pub,
					addr:     addr,
					quitChan: quitChan,
				}
				go conn.run()
			}
			sub.setNumPublishers(len(sub.connections))
		case callback := <-sub.addCallbackChan:
			sub.callbacks = append(sub.callbacks, callback)
		case msgEvent := <-sub.msgChan:
			// Bind the current callbacks and enqueue to the node's job channel.
			callbacks := make([]interface{}, len(sub.callbacks))
			copy(callbacks, sub.callbacks)
			job := func() { sub.dispatch(msgEvent, callbacks) }
			select {
			case jobChan <- job:
			case <-sub.shutdownChan:
			}
		case pubURI := <-sub.disconnectedChan:
			logger.Debug("Connection disconnected to ", pubURI)
			if quitChan, ok := sub.connections[pubURI]; ok {
				close(quitChan)
				delete(sub.connections, pubURI)
			}
			sub.setNumPublishers(len(sub.connections))
		case <-sub.shutdownChan:
			for _, quitChan := range sub.connections {
				close(quitChan)
			}
			sub.connections = map[string]chan struct{}{}
			sub.setNumPublishers(0)
			if _, err := callRosAPI(node.masterURI, "unregisterSubscriber", node.qualifiedName, sub.topic, node.xmlrpcURI); err != nil {
				logger.Warn(err)
			}
			return
		}
	}
}

func (sub *defaultSubscriber) dispatch(msgEvent messageEvent, callbacks []interface{}) {
	m := sub.msgType.NewMessage()
	if err := m.Deserialize(bytes.NewReader(msgEvent.bytes)); err != nil {
		sub.logger.Errorf("Dropping undecodable %s: %s", sub.msgType.Name(), err)
		return
	}
	args := []reflect.Value{reflect.ValueOf(m), reflect.ValueOf(msgEvent.event)}
	for _, callback := range callbacks {
		fun := reflect.ValueOf(callback)
		fun.Call(args[0:fun.Type().NumIn()])
	}
}

// requestTCPROS asks the publishing node at pubURI for a TCPROS endpoint.
func requestTCPROS(pubURI string, callerID string, topic string) (string, error) {
	protocols := []interface{}{[]interface{}{"TCPROS"}}
	result, err := callRosAPI(pubURI, "requestTopic", callerID, topic, protocols)
	if err != nil {
		return "", errors.Wrapf(err, "requestTopic %s from %s", topic, pubURI)
	}
	params, ok := result.([]interface{})
	if !ok || len(params) < 3 {
		return "", errors.Errorf("requestTopic %s from %s: malformed protocol parameters", topic, pubURI)
	}
	if name, _ := params[0].(string); name != "TCPROS" {
		return "", errors.Errorf("requestTopic %s from %s: unsupported protocol %v", topic, pubURI, params[0])
	}
	host, ok := params[1].(string)
	port, ok2 := params[2].(int32)
	if !ok || !ok2 {
		return "", errors.Errorf("requestTopic %s from %s: malformed TCPROS address", topic, pubURI)
	}
	return net.JoinHostPort(host, fmt.Sprint(port)), nil
}

func (sub *defaultSubscriber) setNumPublishers(n int) {
	sub.numMutex.Lock()
	sub.numPublishers = n
	sub.numMutex.Unlock()
}

func (sub *defaultSubscriber) GetNumPublishers() int {
	sub.numMutex.RLock()
	defer sub.numMutex.RUnlock()
	return sub.numPublishers
}

func (sub *defaultSubscriber) Shutdown() {
	sub.shutdownOnce.Do(func() {
		close(sub.shutdownChan)
		sub.node.removeSubscriber(sub.topic, sub)
	})
}

// updatePublishers hands a new publisher list to the subscriber goroutine.
func (sub *defaultSubscriber) updatePublishers(uris []string) {
	select {
	case sub.pubListChan <- uris:
	case <-sub.shutdownChan:
	}
}

func (sub *defaultSubscriber) addCallback(callback interface{}) {
	select {
	case sub.addCallbackChan <- callback:
	case <-sub.shutdownChan:
	}
}

// remotePublisherConn is one TCPROS connection to a publishing node.
type remotePublisherConn struct {
	sub      *defaultSubscriber
	pubURI   string
	addr     string
	quitChan chan struct{}
}

func (c *remotePublisherConn) run() {
	sub := c.sub
	logger := sub.logger.WithField("publisher", c.pubURI)

	conn, err := net.DialTimeout("tcp", c.addr, apiTimeout)
	if err != nil {
		logger.Error("Failed to connect: ", err)
		c.disconnected()
		return
	}
	// Unblock reads when asked to quit.
	exited := make(chan struct{})
	defer close(exited)
	go func() {
		select {
		case <-c.quitChan:
		case <-exited:
		}
		conn.Close()
	}()

	// 1. Write connection header
	headers := []header{
		{"topic", sub.topic},
		{"md5sum", sub.msgType.MD5Sum()},
		{"type", sub.msgType.Name()},
		{"callerid", sub.node.qualifiedName},
		{"tcp_nodelay", "1"},
	}
	conn.SetDeadline(time.Now().Add(apiTimeout))
	if err := writeConnectionHeader(headers, conn); err != nil {
		logger.Error("Failed to write connection header: ", err)
		c.disconnected()
		return
	}

	// 2. Read response header
	resHeaders, err := readConnectionHeader(conn)
	if err != nil {
		logger.Error("Failed to read response header: ", err)
		c.disconnected()
		return
	}
	fields := headerMap(resHeaders)
	if msg, ok := fields["error"]; ok {
		logger.Error("Publisher refused connection: ", msg)
		c.disconnected()
		return
	}
	if !compatible(fields["type"], sub.msgType.Name()) || !compatible(fields["md5sum"], sub.msgType.MD5Sum()) {
		logger.Errorf("Incompatible message type: %s (%s), expected %s (%s)",
			fields["type"], fields["md5sum"], sub.msgType.Name(), sub.msgType.MD5Sum())
		c.disconnected()
		return
	}
	conn.SetDeadline(time.Time{})
	event := MessageEvent{
		PublisherName:    fields["callerid"],
		ConnectionHeader: fields,
	}

	// 3. Start reading messages
	for {
		var msgSize uint32
		if err := binary.Read(conn, binary.LittleEndian, &msgSize); err != nil {
			c.readFailed(logger, err)
			return
		}
		if msgSize > maxMessageSize {
			logger.Errorf("Message size %d exceeds limit", msgSize)
			c.disconnected()
			return
		}
		buffer := make([]byte, int(msgSize))
		if _, err := io.ReadFull(conn, buffer); err != nil {
			c.readFailed(logger, err)
			return
		}
		event.ReceiptTime = time.Now()
		select {
		case sub.msgChan <- messageEvent{bytes: buffer, event: event}:
		case <-c.quitChan:
			return
		}
	}
}

func compatible(remote, local string) bool {
	return remote == local || remote == "*" || local == "*"
}

func (c *remotePublisherConn) readFailed(logger Logger, err error) {
	select {
	case <-c.quitChan:
		return
	default:
	}
	logger.Debug("Read failed: ", err)
	c.disconnected()
}

func (c *remotePublisherConn) disconnected() {
	select {
	case c.sub.disconnectedChan <- c.pubURI:
	case <-c.quitChan:
	case <-c.sub.shutdownChan:
	}
}
