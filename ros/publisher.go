package ros

import (
	"bytes"
	"encoding/binary"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// ErrPublisherClosed is returned by Publish after Shutdown.
var ErrPublisherClosed = errors.New("publisher is shut down")

const writeTimeout = time.Second

// defaultPublisher owns its sessions from the start goroutine; other
// goroutines talk to it through channels only.
type defaultPublisher struct {
	node             *defaultNode
	topic            string
	msgType          MessageType
	queueSize        int
	listener         net.Listener
	port             string
	msgChan          chan []byte
	sessionChan      chan *remoteSubscriberSession
	sessionErrorChan chan *remoteSubscriberSession
	shutdownChan     chan struct{}
	shutdownOnce     sync.Once
	numSubscribers   int32
	logger           Logger
}

func newDefaultPublisher(node *defaultNode, topic string, msgType MessageType, queueSize int) (*defaultPublisher, error) {
	if queueSize < 1 {
		queueSize = 1
	}
	listener, port, err := listenAny(node.listenIP)
	if err != nil {
		return nil, err
	}
	return &defaultPublisher{
		node:             node,
		topic:            topic,
		msgType:          msgType,
		queueSize:        queueSize,
		listener:         listener,
		port:             port,
		msgChan:          make(chan []byte, 10),
		sessionChan:      make(chan *remoteSubscriberSession, 10),
		sessionErrorChan: make(chan *remoteSubscriberSession, 10),
		shutdownChan:     make(chan struct{}),
		logger:           node.logger.WithField("topic", topic),
	}, nil
}

func (pub *defaultPublisher) start(wg *sync.WaitGroup) {
	defer wg.Done()
	logger := pub.logger
	logger.Debug("Publisher goroutine started")
	defer logger.Debug("Publisher goroutine exit")

	go pub.listenRemoteSubscriber()

	sessions := make(map[*remoteSubscriberSession]struct{})
	for {
		select {
		case msg := <-pub.msgChan:
			for s := range sessions {
				s.enqueue(msg)
			}
		case s := <-pub.sessionChan:
			sessions[s] = struct{}{}
			atomic.StoreInt32(&pub.numSubscribers, int32(len(sessions)))
			go s.start()
		case s := <-pub.sessionErrorChan:
			if _, ok := sessions[s]; ok {
				delete(sessions, s)
				atomic.StoreInt32(&pub.numSubscribers, int32(len(sessions)))
			}
		case <-pub.shutdownChan:
			pub.listener.Close()
			if _, err := callRosAPI(pub.node.masterURI, "unregisterPublisher", pub.node.qualifiedName, pub.topic, pub.node.xmlrpcURI); err != nil {
				logger.Warn(err)
			}
			for s := range sessions {
				s.close()
			}
			atomic.StoreInt32(&pub.numSubscribers, 0)
			return
		}
	}
}

func (pub *defaultPublisher) listenRemoteSubscriber() {
	logger := pub.logger
	for {
		conn, err := pub.listener.Accept()
		if err != nil {
			select {
			case <-pub.shutdownChan:
			default:
				logger.Errorf("Accept failed: %s", err)
			}
			return
		}
		logger.Debugf("Connected %s", conn.RemoteAddr().String())
		session := newRemoteSubscriberSession(pub, conn)
		select {
		case pub.sessionChan <- session:
		case <-pub.shutdownChan:
			conn.Close()
			return
		}
	}
}

func (pub *defaultPublisher) Publish(msg Message) error {
	select {
	case <-pub.shutdownChan:
		return ErrPublisherClosed
	default:
	}
	var buf bytes.Buffer
	if err := msg.Serialize(&buf); err != nil {
		return errors.Wrapf(err, "serialize %s", pub.msgType.Name())
	}
	select {
	case pub.msgChan <- buf.Bytes():
		return nil
	case <-pub.shutdownChan:
		return ErrPublisherClosed
	}
}

func (pub *defaultPublisher) GetNumSubscribers() int {
	return int(atomic.LoadInt32(&pub.numSubscribers))
}

func (pub *defaultPublisher) Shutdown() {
	pub.shutdownOnce.Do(func() {
		close(pub.shutdownChan)
		pub.node.removePublisher(pub.topic, pub)
	})
}

func (pub *defaultPublisher) hostAndPort() (string, int) {
	port, _ := strconv.Atoi(pub.port)
	return pub.node.hostname, port
}

type remoteSubscriberSession struct {
	pub       *defaultPublisher
	conn      net.Conn
	queue     chan []byte
	quitChan  chan struct{}
	closeOnce sync.Once
	logger    Logger
}

func newRemoteSubscriberSession(pub *defaultPublisher, conn net.Conn) *remoteSubscriberSession {
	return &remoteSubscriberSession{
		pub:      pub,
		conn:     conn,
		queue:    make(chan []byte, pub.queueSize),
		quitChan: make(chan struct{}),
		logger:   pub.logger.WithField("remote", conn.RemoteAddr().String()),
	}
}

// enqueue never blocks: when the queue is full the oldest message is dropped.
func (s *remoteSubscriberSession) enqueue(msg []byte) {
	for {
		select {
		case s.queue <- msg:
			return
		default:
		}
		select {
		case <-s.queue:
		default:
		}
	}
}

func (s *remoteSubscriberSession) close() {
	s.closeOnce.Do(func() {
		close(s.quitChan)
		s.conn.Close()
	})
}

func (s *remoteSubscriberSession) start() {
	logger := s.logger
	defer func() {
		s.close()
		select {
		case s.pub.sessionErrorChan <- s:
		case <-s.pub.shutdownChan:
		}
	}()

	// 1. Read connection header
	s.conn.SetDeadline(time.Now().Add(apiTimeout))
	headers, err := readConnectionHeader(s.conn)
	if err != nil {
		logger.Error("Failed to read connection header: ", err)
		return
	}
	fields := headerMap(headers)
	logger.Debugf("TCPROS connection header: %v", fields)

	// 2. Return response header
	md5sum := s.pub.msgType.MD5Sum()
	typeName := s.pub.msgType.Name()
	var resHeaders []header
	if fields["type"] != typeName && fields["type"] != "*" {
		resHeaders = append(resHeaders, header{"error", "incompatible message type " + fields["type"] + " for " + typeName})
	} else if fields["md5sum"] != md5sum && fields["md5sum"] != "*" && md5sum != "*" {
		resHeaders = append(resHeaders, header{"error", "incompatible md5sum " + fields["md5sum"] + " for " + typeName})
	}
	if len(resHeaders) > 0 {
		logger.Error(resHeaders[0].value)
		writeConnectionHeader(resHeaders, s.conn)
		return
	}
	resHeaders = append(resHeaders,
		header{"message_definition", s.pub.msgType.Text()},
		header{"callerid", s.pub.node.qualifiedName},
		header{"latching", "0"},
		header{"md5sum", md5sum},
		header{"topic", s.pub.topic},
		header{"type", typeName},
	)
	if err := writeConnectionHeader(resHeaders, s.conn); err != nil {
		logger.Error("Failed to write response header: ", err)
		return
	}
	s.conn.SetDeadline(time.Time{})
	logger.Debugf("Subscriber %s connected", fields["callerid"])

	// 3. Start sending messages
	for {
		select {
		case <-s.quitChan:
			return
		case msg := <-s.queue:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := binary.Write(s.conn, binary.LittleEndian, uint32(len(msg))); err != nil {
				logger.Debug("Write failed: ", err)
				return
			}
			if _, err := s.conn.Write(msg); err != nil {
				logger.Debug("Write failed: ", err)
				return
			}
		}
	}
}
