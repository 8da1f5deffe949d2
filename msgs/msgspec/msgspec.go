// Package msgspec parses ROS message definitions and computes their MD5
// sums the way genmsg does, so that message types written by hand can be
// checked against the definitions they claim to implement.
package msgspec

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/edwinhayes/lio2px4/ros"
	"github.com/pkg/errors"
)

const (
	headerType     = "Header"
	headerFullName = "std_msgs/Header"
	separator      = "================================================================================"
	msgPrefix      = "MSG: "
)

var builtinTypes = map[string]bool{
	"int8": true, "uint8": true, "int16": true, "uint16": true,
	"int32": true, "uint32": true, "int64": true, "uint64": true,
	"float32": true, "float64": true, "string": true, "bool": true,
	"char": true, "byte": true, "time": true, "duration": true,
}

var legalName = regexp.MustCompile(`^[A-Za-z][\w/]*$`)

type Constant struct {
	Type      string
	Name      string
	ValueText string
}

type Field struct {
	Package  string
	Type     string
	Name     string
	IsArray  bool
	ArrayLen int
}

func (f Field) isBuiltin() bool {
	return f.Package == "" && builtinTypes[f.Type]
}

// typeText is the field type as written in a definition, array suffix included.
func (f Field) typeText() string {
	switch {
	case f.IsArray && f.ArrayLen >= 0:
		return fmt.Sprintf("%s[%d]", f.Type, f.ArrayLen)
	case f.IsArray:
		return f.Type + "[]"
	}
	return f.Type
}

type Spec struct {
	FullName  string
	Package   string
	Constants []Constant
	Fields    []Field
}

// Context holds the definitions a message depends on.
type Context struct {
	specs map[string]*Spec
}

func NewContext() *Context {
	return &Context{specs: make(map[string]*Spec)}
}

func splitName(fullName string) (string, string, error) {
	components := strings.Split(fullName, "/")
	if len(components) != 2 || components[0] == "" || components[1] == "" {
		return "", "", errors.Errorf("%q is not a package/Name message name", fullName)
	}
	return components[0], components[1], nil
}

// Load registers fullName with the full definition text as carried in a
// message_definition connection header: the message itself followed by
// one "MSG: pkg/Name" section per dependency.
func (ctx *Context) Load(fullName string, text string) error {
	sections := strings.Split(text, separator+"\n")
	if err := ctx.register(fullName, sections[0]); err != nil {
		return err
	}
	for _, section := range sections[1:] {
		newline := strings.Index(section, "\n")
		if !strings.HasPrefix(section, msgPrefix) || newline < 0 {
			return errors.Errorf("%s: malformed dependency section", fullName)
		}
		name := strings.TrimSpace(section[len(msgPrefix):newline])
		if err := ctx.register(name, section[newline+1:]); err != nil {
			return err
		}
	}
	return nil
}

func (ctx *Context) register(fullName string, text string) error {
	spec, err := Parse(fullName, text)
	if err != nil {
		return err
	}
	ctx.specs[fullName] = spec
	return nil
}

// Parse reads a single message definition.
func Parse(fullName string, text string) (*Spec, error) {
	pkg, _, err := splitName(fullName)
	if err != nil {
		return nil, err
	}
	spec := &Spec{FullName: fullName, Package: pkg}
	for n, line := range strings.Split(text, "\n") {
		if err := spec.parseLine(line); err != nil {
			return nil, errors.Wrapf(err, "%s line %d", fullName, n+1)
		}
	}
	return spec, nil
}

func (spec *Spec) parseLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	typeText := fields[0]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), typeText))

	code := rest
	if hash := strings.Index(rest, "#"); hash >= 0 {
		code = rest[:hash]
	}
	if strings.Contains(code, "=") || (typeText == "string" && strings.Contains(rest, "=")) {
		eq := strings.Index(rest, "=")
		if !builtinTypes[typeText] || typeText == "time" || typeText == "duration" {
			return errors.Errorf("invalid constant type %q", typeText)
		}
		name := strings.TrimSpace(rest[:eq])
		value := rest[eq+1:]
		// String constants keep everything after '=', comments included.
		if typeText == "string" {
			value = strings.TrimSpace(value)
		} else {
			if hash := strings.Index(value, "#"); hash >= 0 {
				value = value[:hash]
			}
			value = strings.TrimSpace(value)
		}
		if !legalName.MatchString(name) {
			return errors.Errorf("invalid constant name %q", name)
		}
		spec.Constants = append(spec.Constants, Constant{Type: typeText, Name: name, ValueText: value})
		return nil
	}

	name := strings.TrimSpace(code)
	if !legalName.MatchString(name) || strings.Contains(name, "/") {
		return errors.Errorf("invalid field name %q", name)
	}
	field, err := parseType(spec.Package, typeText)
	if err != nil {
		return err
	}
	field.Name = name
	spec.Fields = append(spec.Fields, field)
	return nil
}

func parseType(pkg string, typeText string) (Field, error) {
	var field Field
	base := typeText
	if index := strings.Index(typeText, "["); index >= 0 {
		if !strings.HasSuffix(typeText, "]") {
			return field, errors.Errorf("missing ']' in %q", typeText)
		}
		base = typeText[:index]
		size := typeText[index+1 : len(typeText)-1]
		field.IsArray = true
		field.ArrayLen = -1
		if size != "" {
			n, err := strconv.Atoi(size)
			if err != nil || n < 0 {
				return field, errors.Errorf("invalid array length in %q", typeText)
			}
			field.ArrayLen = n
		}
	}
	if !legalName.MatchString(base) {
		return field, errors.Errorf("invalid type %q", typeText)
	}

	switch {
	case builtinTypes[base]:
		field.Type = base
	case base == headerType || base == headerFullName:
		field.Package, field.Type = "std_msgs", headerType
	case strings.Contains(base, "/"):
		p, t, err := splitName(base)
		if err != nil {
			return field, err
		}
		field.Package, field.Type = p, t
	default:
		field.Package, field.Type = pkg, base
	}
	return field, nil
}

// MD5Text returns the text hashed for fullName: constants, builtin fields
// verbatim and nested messages replaced by their MD5 sum.
func (ctx *Context) MD5Text(fullName string) (string, error) {
	return ctx.md5Text(fullName, map[string]bool{})
}

func (ctx *Context) md5Text(fullName string, visiting map[string]bool) (string, error) {
	spec, ok := ctx.specs[fullName]
	if !ok {
		return "", errors.Errorf("message %s is not loaded", fullName)
	}
	if visiting[fullName] {
		return "", errors.Errorf("message %s contains itself", fullName)
	}
	visiting[fullName] = true
	defer delete(visiting, fullName)

	var lines []string
	for _, c := range spec.Constants {
		lines = append(lines, fmt.Sprintf("%s %s=%s", c.Type, c.Name, c.ValueText))
	}
	for _, f := range spec.Fields {
		if f.isBuiltin() {
			lines = append(lines, fmt.Sprintf("%s %s", f.typeText(), f.Name))
			continue
		}
		text, err := ctx.md5Text(f.Package+"/"+f.Type, visiting)
		if err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("%s %s", hash(text), f.Name))
	}
	return strings.Join(lines, "\n"), nil
}

func (ctx *Context) MD5Sum(fullName string) (string, error) {
	text, err := ctx.MD5Text(fullName)
	if err != nil {
		return "", err
	}
	return hash(text), nil
}

func hash(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the MD5 sum of msgType from its definition text and
// compares it with the one it advertises.
func Verify(msgType ros.MessageType) error {
	ctx := NewContext()
	if err := ctx.Load(msgType.Name(), msgType.Text()); err != nil {
		return err
	}
	sum, err := ctx.MD5Sum(msgType.Name())
	if err != nil {
		return err
	}
	if sum != msgType.MD5Sum() {
		return errors.Errorf("%s advertises md5sum %s but its definition hashes to %s", msgType.Name(), msgType.MD5Sum(), sum)
	}
	return nil
}
