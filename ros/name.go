package ros

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

const (
	Sep       = "/"
	GlobalNS  = "/"
	PrivateNS = "~"
	Remap     = ":="
)

// NameMap maps graph resource names to other names.
type NameMap map[string]string

var (
	validName      = regexp.MustCompile(`^[~/]?([a-zA-Z]\w*/)*[a-zA-Z]\w*/?$`)
	validNamespace = regexp.MustCompile(`^/([a-zA-Z]\w*/)*$`)
)

func isValidName(name string) bool {
	if len(name) == 0 || name == GlobalNS || name == PrivateNS {
		return true
	}
	return validName.MatchString(name)
}

func isValidNamespace(name string) bool {
	return validNamespace.MatchString(name)
}

func isGlobalName(name string) bool {
	return strings.HasPrefix(name, GlobalNS)
}

func isPrivateName(name string) bool {
	return strings.HasPrefix(name, PrivateNS)
}

// canonicalizeName removes repeated and trailing separators.
func canonicalizeName(name string) string {
	if name == GlobalNS || name == "" {
		return name
	}
	var components []string
	for _, word := range strings.Split(name, Sep) {
		if len(word) > 0 {
			components = append(components, word)
		}
	}
	if isGlobalName(name) {
		return GlobalNS + strings.Join(components, Sep)
	}
	return strings.Join(components, Sep)
}

func joinName(parts ...string) string {
	return canonicalizeName(GlobalNS + strings.Join(parts, Sep))
}

// qualifyNodeName splits a node name into its namespace and base name.
func qualifyNodeName(nodeName string) (string, string, error) {
	if nodeName == "" {
		return "", "", errors.New("empty node name")
	}
	if strings.Contains(nodeName, PrivateNS) {
		return "", "", errors.Errorf("node name %q should not contain '~'", nodeName)
	}
	canonName := canonicalizeName(nodeName)
	var components []string
	for _, c := range strings.Split(canonName, Sep) {
		if len(c) > 0 {
			components = append(components, c)
		}
	}
	if len(components) == 0 {
		return "", "", errors.Errorf("invalid node name %q", nodeName)
	}
	last := len(components) - 1
	return joinName(components[:last]...), components[last], nil
}

// NameResolver resolves topic and parameter names relative to a node.
type NameResolver struct {
	namespace string
	nodeName  string
	mapping   NameMap
}

// newNameResolver builds a resolver for the node nodeName living in
// namespace. Both sides of each remapping are resolved before use.
func newNameResolver(namespace string, nodeName string, remapping NameMap) *NameResolver {
	n := &NameResolver{
		namespace: joinName(namespace),
		nodeName:  nodeName,
		mapping:   make(NameMap),
	}
	for k, v := range remapping {
		n.mapping[n.qualify(k)] = n.qualify(v)
	}
	return n
}

func (n *NameResolver) qualify(name string) string {
	switch {
	case name == "":
		return n.namespace
	case isGlobalName(name):
		return canonicalizeName(name)
	case isPrivateName(name):
		return joinName(n.namespace, n.nodeName, name[1:])
	default:
		return joinName(n.namespace, name)
	}
}

// resolve qualifies name and applies the node's remappings.
func (n *NameResolver) resolve(name string) string {
	resolved := n.qualify(name)
	if remapped, ok := n.mapping[resolved]; ok {
		return remapped
	}
	return resolved
}
