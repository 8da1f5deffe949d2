package ros

import (
	"context"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/edwinhayes/lio2px4/xmlrpc"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// NodeOption customizes NewNode.
type NodeOption func(*nodeOptions)

type nodeOptions struct {
	anonymous bool
	logger    Logger
	masterURI string
}

// Anonymous appends a random suffix to the node name so that several
// instances can run side by side.
func Anonymous() NodeOption {
	return func(o *nodeOptions) { o.anonymous = true }
}

// WithLogger replaces the default stderr logger.
func WithLogger(logger Logger) NodeOption {
	return func(o *nodeOptions) { o.logger = logger }
}

// WithMasterURI overrides ROS_MASTER_URI. A __master argument still wins.
func WithMasterURI(uri string) NodeOption {
	return func(o *nodeOptions) { o.masterURI = uri }
}

// *defaultNode implements Node interface
type defaultNode struct {
	name          string
	namespace     string
	qualifiedName string
	masterURI     string
	xmlrpcURI     string
	xmlrpcServer  *http.Server
	xmlrpcHandler *xmlrpc.Handler
	mutex         sync.Mutex
	subscribers   map[string]*defaultSubscriber
	publishers    map[string]*defaultPublisher
	jobChan       chan func()
	logger        Logger
	done          chan struct{}
	doneOnce      sync.Once
	shutdownOnce  sync.Once
	waitGroup     sync.WaitGroup
	hostname      string
	listenIP      string
	nameResolver  *NameResolver
	nonRosArgs    []string
}

func anonymousSuffix() string {
	return "_" + strings.Replace(uuid.New().String(), "-", "", -1)[:12]
}

func newDefaultNode(name string, args []string, opts ...NodeOption) (*defaultNode, error) {
	var options nodeOptions
	for _, opt := range opts {
		opt(&options)
	}

	namespace, nodeName, err := qualifyNodeName(name)
	if err != nil {
		return nil, err
	}

	remapping, params, specials, rest := processArguments(args)

	node := new(defaultNode)
	node.name = nodeName
	if value, ok := specials["__name"]; ok {
		node.name = value
	}
	if options.anonymous {
		node.name += anonymousSuffix()
	}

	node.namespace = namespace
	if ns := os.Getenv("ROS_NAMESPACE"); len(ns) > 0 {
		node.namespace = ns
	}
	if value, ok := specials["__ns"]; ok {
		node.namespace = value
	}
	node.namespace = joinName(node.namespace)

	var onlyLocalhost bool
	node.hostname, onlyLocalhost = determineHost()
	if value, ok := specials["__hostname"]; ok {
		node.hostname = value
		onlyLocalhost = (value == "localhost")
	} else if value, ok := specials["__ip"]; ok {
		node.hostname = value
		onlyLocalhost = isLoopback(value)
	}
	if onlyLocalhost {
		node.listenIP = "127.0.0.1"
	} else {
		node.listenIP = "0.0.0.0"
	}

	node.masterURI = os.Getenv("ROS_MASTER_URI")
	if options.masterURI != "" {
		node.masterURI = options.masterURI
	}
	if value, ok := specials["__master"]; ok {
		node.masterURI = value
	}
	if node.masterURI == "" {
		return nil, errors.New("ROS_MASTER_URI is not set")
	}

	node.nameResolver = newNameResolver(node.namespace, node.name, remapping)
	node.nonRosArgs = rest
	node.qualifiedName = joinName(node.namespace, node.name)
	node.subscribers = make(map[string]*defaultSubscriber)
	node.publishers = make(map[string]*defaultPublisher)
	node.jobChan = make(chan func(), 100)
	node.done = make(chan struct{})

	if options.logger == nil {
		options.logger = NewDefaultLogger()
	}
	node.logger = options.logger.WithModule("ros")
	logger := node.logger
	logger.Debugf("Master URI = %s", node.masterURI)

	// Set parameters set by arguments
	for k, v := range params {
		if err := node.SetParam(k, v); err != nil {
			return nil, errors.Wrapf(err, "set parameter %s", k)
		}
	}

	listener, port, err := listenAny(node.listenIP)
	if err != nil {
		return nil, err
	}
	node.xmlrpcURI = "http://" + net.JoinHostPort(node.hostname, port)
	logger.Debugf("Slave API listening on %s", listener.Addr().String())

	m := map[string]xmlrpc.Method{
		"getBusStats":      func(callerID string) (interface{}, error) { return node.getBusStats(callerID) },
		"getBusInfo":       func(callerID string) (interface{}, error) { return node.getBusInfo(callerID) },
		"getMasterUri":     func(callerID string) (interface{}, error) { return node.getMasterURI(callerID) },
		"shutdown":         func(callerID string, msg string) (interface{}, error) { return node.shutdown(callerID, msg) },
		"getPid":           func(callerID string) (interface{}, error) { return node.getPid(callerID) },
		"getSubscriptions": func(callerID string) (interface{}, error) { return node.getSubscriptions(callerID) },
		"getPublications":  func(callerID string) (interface{}, error) { return node.getPublications(callerID) },
		"paramUpdate": func(callerID string, key string, value interface{}) (interface{}, error) {
			return node.paramUpdate(callerID, key, value)
		},
		"publisherUpdate": func(callerID string, topic string, publishers []interface{}) (interface{}, error) {
			return node.publisherUpdate(callerID, topic, publishers)
		},
		"requestTopic": func(callerID string, topic string, protocols []interface{}) (interface{}, error) {
			return node.requestTopic(callerID, topic, protocols)
		},
	}
	node.xmlrpcHandler = xmlrpc.NewHandler(m)
	node.xmlrpcServer = &http.Server{Handler: node.xmlrpcHandler}
	go node.xmlrpcServer.Serve(listener)
	logger.Debugf("Started %s", node.qualifiedName)
	return node, nil
}

func (node *defaultNode) markDone() {
	node.doneOnce.Do(func() { close(node.done) })
}

func (node *defaultNode) OK() bool {
	select {
	case <-node.done:
		return false
	default:
		return true
	}
}

func (node *defaultNode) Done() <-chan struct{} {
	return node.done
}

func (node *defaultNode) Name() string {
	return node.qualifiedName
}

func (node *defaultNode) getBusStats(callerID string) (interface{}, error) {
	return buildRosAPIResult(APIStatusError, "Not implemented", 0), nil
}

func (node *defaultNode) getBusInfo(callerID string) (interface{}, error) {
	return buildRosAPIResult(APIStatusSuccess, "Success", []interface{}{}), nil
}

func (node *defaultNode) getMasterURI(callerID string) (interface{}, error) {
	return buildRosAPIResult(APIStatusSuccess, "Success", node.masterURI), nil
}

func (node *defaultNode) shutdown(callerID string, msg string) (interface{}, error) {
	node.logger.Infof("Shutdown requested by %s: %s", callerID, msg)
	node.markDone()
	return buildRosAPIResult(APIStatusSuccess, "Success", 0), nil
}

func (node *defaultNode) getPid(callerID string) (interface{}, error) {
	return buildRosAPIResult(APIStatusSuccess, "Success", os.Getpid()), nil
}

func (node *defaultNode) getSubscriptions(callerID string) (interface{}, error) {
	node.mutex.Lock()
	defer node.mutex.Unlock()
	result := []interface{}{}
	for t, s := range node.subscribers {
		result = append(result, []interface{}{t, s.msgType.Name()})
	}
	return buildRosAPIResult(APIStatusSuccess, "Success", result), nil
}

func (node *defaultNode) getPublications(callerID string) (interface{}, error) {
	node.mutex.Lock()
	defer node.mutex.Unlock()
	result := []interface{}{}
	for t, p := range node.publishers {
		result = append(result, []interface{}{t, p.msgType.Name()})
	}
	return buildRosAPIResult(APIStatusSuccess, "Success", result), nil
}

func (node *defaultNode) paramUpdate(callerID string, key string, value interface{}) (interface{}, error) {
	return buildRosAPIResult(APIStatusError, "Not implemented", 0), nil
}

func (node *defaultNode) publisherUpdate(callerID string, topic string, publishers []interface{}) (interface{}, error) {
	node.logger.Debugf("Slave API publisherUpdate(%s, %s) called", callerID, topic)
	node.mutex.Lock()
	sub, ok := node.subscribers[topic]
	node.mutex.Unlock()
	if !ok {
		return buildRosAPIResult(APIStatusFailure, "No such topic", 0), nil
	}
	pubURIs := make([]string, 0, len(publishers))
	for _, uri := range publishers {
		if s, ok := uri.(string); ok {
			pubURIs = append(pubURIs, s)
		}
	}
	sub.updatePublishers(pubURIs)
	return buildRosAPIResult(APIStatusSuccess, "Success", 0), nil
}

func (node *defaultNode) requestTopic(callerID string, topic string, protocols []interface{}) (interface{}, error) {
	node.logger.Debugf("Slave API requestTopic(%s, %s) called", callerID, topic)
	node.mutex.Lock()
	pub, ok := node.publishers[topic]
	node.mutex.Unlock()
	if !ok {
		return buildRosAPIResult(APIStatusFailure, "No such topic", 0), nil
	}
	for _, v := range protocols {
		protocolParams, ok := v.([]interface{})
		if !ok || len(protocolParams) == 0 {
			continue
		}
		if name, _ := protocolParams[0].(string); name == "TCPROS" {
			host, port := pub.hostAndPort()
			return buildRosAPIResult(APIStatusSuccess, "Success", []interface{}{"TCPROS", host, port}), nil
		}
	}
	return buildRosAPIResult(APIStatusFailure, "No supported protocol", []interface{}{}), nil
}

func (node *defaultNode) resolveTopic(topic string) (string, error) {
	if topic == "" || !isValidName(topic) {
		return "", errors.Errorf("invalid topic name %q", topic)
	}
	return node.nameResolver.resolve(topic), nil
}

func (node *defaultNode) NewPublisher(topic string, msgType MessageType, queueSize int) (Publisher, error) {
	name, err := node.resolveTopic(topic)
	if err != nil {
		return nil, err
	}
	node.mutex.Lock()
	if pub, ok := node.publishers[name]; ok {
		node.mutex.Unlock()
		if pub.msgType.Name() != msgType.Name() {
			return nil, errors.Errorf("%s is already advertised as %s", name, pub.msgType.Name())
		}
		return pub, nil
	}
	pub, err := newDefaultPublisher(node, name, msgType, queueSize)
	if err != nil {
		node.mutex.Unlock()
		return nil, err
	}
	node.publishers[name] = pub
	node.waitGroup.Add(1)
	go pub.start(&node.waitGroup)
	node.mutex.Unlock()

	// The publisher must be able to answer requestTopic before the master
	// announces it to subscribers.
	if _, err := callRosAPI(node.masterURI, "registerPublisher", node.qualifiedName, name, msgType.Name(), node.xmlrpcURI); err != nil {
		pub.Shutdown()
		return nil, errors.Wrapf(err, "advertise %s", name)
	}
	return pub, nil
}

func (node *defaultNode) removePublisher(topic string, pub *defaultPublisher) {
	node.mutex.Lock()
	defer node.mutex.Unlock()
	if node.publishers[topic] == pub {
		delete(node.publishers, topic)
	}
}

func (node *defaultNode) NewSubscriber(topic string, msgType MessageType, callback interface{}) (Subscriber, error) {
	name, err := node.resolveTopic(topic)
	if err != nil {
		return nil, err
	}
	if err := checkCallback(callback, msgType); err != nil {
		return nil, err
	}
	node.mutex.Lock()
	if sub, ok := node.subscribers[name]; ok {
		node.mutex.Unlock()
		sub.addCallback(callback)
		return sub, nil
	}
	sub := newDefaultSubscriber(node, name, msgType, callback)
	node.subscribers[name] = sub
	node.waitGroup.Add(1)
	go sub.start(&node.waitGroup, node.jobChan)
	node.mutex.Unlock()

	result, err := callRosAPI(node.masterURI, "registerSubscriber", node.qualifiedName, name, msgType.Name(), node.xmlrpcURI)
	if err != nil {
		sub.Shutdown()
		return nil, errors.Wrapf(err, "subscribe %s", name)
	}
	list, ok := result.([]interface{})
	if !ok {
		sub.Shutdown()
		return nil, errors.Errorf("subscribe %s: publisher list is %T", name, result)
	}
	var publishers []string
	for _, item := range list {
		if s, ok := item.(string); ok {
			publishers = append(publishers, s)
		}
	}
	node.logger.Debugf("Publisher URI list for %s: %v", name, publishers)
	sub.updatePublishers(publishers)
	return sub, nil
}

func (node *defaultNode) removeSubscriber(topic string, sub *defaultSubscriber) {
	node.mutex.Lock()
	defer node.mutex.Unlock()
	if node.subscribers[topic] == sub {
		delete(node.subscribers, topic)
	}
}

func (node *defaultNode) SpinOnce() {
	select {
	case job := <-node.jobChan:
		job()
	case <-time.After(10 * time.Millisecond):
	}
}

func (node *defaultNode) Spin(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-node.done:
			return
		case job := <-node.jobChan:
			job()
		}
	}
}

func (node *defaultNode) Shutdown() {
	node.shutdownOnce.Do(node.shutdownNode)
}

func (node *defaultNode) shutdownNode() {
	logger := node.logger
	logger.Debug("Shutting node down")
	node.markDone()

	node.mutex.Lock()
	subscribers := make([]*defaultSubscriber, 0, len(node.subscribers))
	for _, s := range node.subscribers {
		subscribers = append(subscribers, s)
	}
	publishers := make([]*defaultPublisher, 0, len(node.publishers))
	for _, p := range node.publishers {
		publishers = append(publishers, p)
	}
	node.mutex.Unlock()

	for _, s := range subscribers {
		s.Shutdown()
	}
	for _, p := range publishers {
		p.Shutdown()
	}
	node.waitGroup.Wait()
	node.xmlrpcServer.Close()
	node.xmlrpcHandler.WaitForShutdown()
	logger.Debug("Shutting node down completed")
}

func (node *defaultNode) GetParam(key string) (interface{}, error) {
	name := node.nameResolver.resolve(key)
	return callRosAPI(node.masterURI, "getParam", node.qualifiedName, name)
}

func (node *defaultNode) SetParam(key string, value interface{}) error {
	name := node.nameResolver.resolve(key)
	_, err := callRosAPI(node.masterURI, "setParam", node.qualifiedName, name, value)
	return err
}

func (node *defaultNode) HasParam(key string) (bool, error) {
	name := node.nameResolver.resolve(key)
	result, err := callRosAPI(node.masterURI, "hasParam", node.qualifiedName, name)
	if err != nil {
		return false, err
	}
	hasParam, ok := result.(bool)
	if !ok {
		return false, errors.Errorf("hasParam %s: result is %T", name, result)
	}
	return hasParam, nil
}

func (node *defaultNode) SearchParam(key string) (string, error) {
	result, err := callRosAPI(node.masterURI, "searchParam", node.qualifiedName, key)
	if err != nil {
		return "", err
	}
	foundKey, ok := result.(string)
	if !ok {
		return "", errors.Errorf("searchParam %s: result is %T", key, result)
	}
	return foundKey, nil
}

func (node *defaultNode) DeleteParam(key string) error {
	name := node.nameResolver.resolve(key)
	_, err := callRosAPI(node.masterURI, "deleteParam", node.qualifiedName, name)
	return err
}

func (node *defaultNode) Logger() Logger {
	return node.logger
}

func (node *defaultNode) NonRosArgs() []string {
	return node.nonRosArgs
}
