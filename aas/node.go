// Package aas provides a minimal document model for AAS (Asset Administration
// Shell) JSON environments: a tagged-variant node tree, path addressing into
// the tree, and extraction of the semantic context around a target element.
package aas

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Node.
type Kind int

// Node variants.
const (
	KindNull Kind = iota
	KindObject
	KindArray
	KindString
	KindNumber
	KindBool
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "null"
	}
}

// Node is a tagged-variant JSON value. Object nodes preserve key order so
// traversal output is deterministic.
type Node struct {
	kind   Kind
	keys   []string
	fields map[string]*Node
	items  []*Node
	str    string
	num    float64
	boolV  bool
}

// Kind returns the variant of this node.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindNull
	}
	return n.kind
}

// Field returns the named field of an object node.
func (n *Node) Field(name string) (*Node, bool) {
	if n == nil || n.kind != KindObject {
		return nil, false
	}
	v, ok := n.fields[name]
	return v, ok
}

// Keys returns the field names of an object node in document order.
func (n *Node) Keys() []string {
	if n == nil {
		return nil
	}
	return n.keys
}

// Index returns the i-th element of an array node.
func (n *Node) Index(i int) (*Node, bool) {
	if n == nil || n.kind != KindArray || i < 0 || i >= len(n.items) {
		return nil, false
	}
	return n.items[i], true
}

// Len returns the element count of an array node, or zero otherwise.
func (n *Node) Len() int {
	if n == nil || n.kind != KindArray {
		return 0
	}
	return len(n.items)
}

// Str returns the string value, or empty for non-string nodes.
func (n *Node) Str() string {
	if n == nil || n.kind != KindString {
		return ""
	}
	return n.str
}

// StringField is a shortcut for reading a string-valued object field.
func (n *Node) StringField(name string) string {
	v, ok := n.Field(name)
	if !ok {
		return ""
	}
	return v.Str()
}

// DecodeNode parses a JSON value into a Node tree, preserving object key order.
func DecodeNode(data []byte) (*Node, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()

	node, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}

	// Reject trailing content after the first value
	if dec.More() {
		return nil, fmt.Errorf("unexpected trailing content after JSON value")
	}
	return node, nil
}

func decodeValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (*Node, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return &Node{kind: KindString, str: t}, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", t, err)
		}
		return &Node{kind: KindNumber, num: f}, nil
	case bool:
		return &Node{kind: KindBool, boolV: t}, nil
	case nil:
		return &Node{kind: KindNull}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func decodeObject(dec *json.Decoder) (*Node, error) {
	n := &Node{kind: KindObject, fields: make(map[string]*Node)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", keyTok)
		}

		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}

		if _, exists := n.fields[key]; !exists {
			n.keys = append(n.keys, key)
		}
		n.fields[key] = val
	}
	// Consume closing brace
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

func decodeArray(dec *json.Decoder) (*Node, error) {
	n := &Node{kind: KindArray}
	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		n.items = append(n.items, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

// Path addresses one node in the tree: an ordered sequence of object keys and
// array indices, written "submodels/0/submodelElements/3".
type Path []string

// ParsePath splits a slash-separated path into steps. Paths that do not start
// with "submodels" are assumed relative to the first submodel.
func ParsePath(s string) Path {
	s = strings.Trim(strings.TrimSpace(s), "/")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "/")
	if parts[0] != "submodels" {
		parts = append([]string{"submodels", "0"}, parts...)
	}
	return Path(parts)
}

// String renders the path in slash-separated form.
func (p Path) String() string {
	return strings.Join(p, "/")
}

// Parent returns the path without its last step.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

// Leaf returns the last step of the path.
func (p Path) Leaf() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Resolve follows the path from root and returns the addressed node.
// Digit steps index into arrays; all other steps select object fields.
func Resolve(root *Node, p Path) (*Node, error) {
	node := root
	for i, step := range p {
		if idx, err := strconv.Atoi(step); err == nil && node.Kind() == KindArray {
			child, ok := node.Index(idx)
			if !ok {
				return nil, fmt.Errorf("path %q: index %d out of range at step %d", p, idx, i)
			}
			node = child
			continue
		}

		child, ok := node.Field(step)
		if !ok {
			return nil, fmt.Errorf("path %q: no field %q at step %d (%s node)", p, step, i, node.Kind())
		}
		node = child
	}
	return node, nil
}
