package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Kind is the JSON type of a payload node.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	}
	return "unknown"
}

const maxPayloadDepth = 64

// Member is one key/value pair of an object node.
type Member struct {
	Key   string
	Value *Node
}

// Node is a generic JSON tree used for extraction payloads at the service boundary.
// Object members keep their original order and numbers keep their literal text,
// so a payload written back out matches what the extractor produced.
type Node struct {
	Kind Kind

	// Text holds the string value, the number literal or "true"/"false".
	Text string

	Members []Member
	Items   []*Node
}

// ParsePayload decodes a JSON document into a Node tree.
func ParsePayload(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	n, err := decodeNode(dec, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed payload: %v", ErrInvalidInput, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after payload", ErrInvalidInput)
	}
	return n, nil
}

func decodeNode(dec *json.Decoder, depth int) (*Node, error) {
	if depth > maxPayloadDepth {
		return nil, errors.New("nesting too deep")
	}

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case nil:
		return &Node{Kind: KindNull}, nil
	case string:
		return NewString(v), nil
	case json.Number:
		return &Node{Kind: KindNumber, Text: v.String()}, nil
	case bool:
		return &Node{Kind: KindBool, Text: strconv.FormatBool(v)}, nil
	case json.Delim:
		switch v {
		case '{':
			n := NewObject()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", kt)
				}
				child, err := decodeNode(dec, depth+1)
				if err != nil {
					return nil, err
				}
				n.Set(key, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		case '[':
			n := NewArray()
			for dec.More() {
				child, err := decodeNode(dec, depth+1)
				if err != nil {
					return nil, err
				}
				n.Items = append(n.Items, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// NewString creates a string node.
func NewString(s string) *Node {
	return &Node{Kind: KindString, Text: s}
}

// NewObject creates an empty object node.
func NewObject() *Node {
	return &Node{Kind: KindObject, Members: []Member{}}
}

// NewArray creates an empty array node.
func NewArray() *Node {
	return &Node{Kind: KindArray, Items: []*Node{}}
}

// IsNull reports whether the node is absent or JSON null.
func (n *Node) IsNull() bool {
	return n == nil || n.Kind == KindNull
}

// IsScalar reports whether the node is a string, number or bool.
func (n *Node) IsScalar() bool {
	return n != nil && (n.Kind == KindString || n.Kind == KindNumber || n.Kind == KindBool)
}

// IsObject reports whether the node is an object.
func (n *Node) IsObject() bool {
	return n != nil && n.Kind == KindObject
}

// IsArray reports whether the node is an array.
func (n *Node) IsArray() bool {
	return n != nil && n.Kind == KindArray
}

// Get returns the member value for key, or nil.
func (n *Node) Get(key string) *Node {
	if !n.IsObject() {
		return nil
	}
	for _, m := range n.Members {
		if m.Key == key {
			return m.Value
		}
	}
	return nil
}

// Has reports whether the object carries key, even with a null value.
func (n *Node) Has(key string) bool {
	if !n.IsObject() {
		return false
	}
	for _, m := range n.Members {
		if m.Key == key {
			return true
		}
	}
	return false
}

// Set replaces the value for key or appends a new member.
func (n *Node) Set(key string, value *Node) {
	for i := range n.Members {
		if n.Members[i].Key == key {
			n.Members[i].Value = value
			return
		}
	}
	n.Members = append(n.Members, Member{Key: key, Value: value})
}

// Keys returns the object keys in document order.
func (n *Node) Keys() []string {
	if !n.IsObject() {
		return nil
	}
	keys := make([]string, 0, len(n.Members))
	for _, m := range n.Members {
		keys = append(keys, m.Key)
	}
	return keys
}

// Value returns the node as extracted text: nil for null, the literal for scalars
// and compact JSON for objects and arrays.
func (n *Node) Value() *string {
	if n.IsNull() {
		return nil
	}
	if n.IsScalar() {
		s := n.Text
		return &s
	}
	b, _ := n.MarshalJSON()
	s := string(b)
	return &s
}

// Equal compares two trees structurally. Object member order is ignored,
// scalars compare by their literal text.
func (n *Node) Equal(o *Node) bool {
	if n.IsNull() || o.IsNull() {
		return n.IsNull() && o.IsNull()
	}
	if n.Kind != o.Kind {
		return false
	}
	switch n.Kind {
	case KindObject:
		if len(n.Members) != len(o.Members) {
			return false
		}
		for _, m := range n.Members {
			if !o.Has(m.Key) || !m.Value.Equal(o.Get(m.Key)) {
				return false
			}
		}
		return true
	case KindArray:
		if len(n.Items) != len(o.Items) {
			return false
		}
		for i := range n.Items {
			if !n.Items[i].Equal(o.Items[i]) {
				return false
			}
		}
		return true
	default:
		return n.Text == o.Text
	}
}

// MarshalJSON writes the tree preserving member order and number literals.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes through ParsePayload so ordering is kept.
func (n *Node) UnmarshalJSON(data []byte) error {
	parsed, err := ParsePayload(data)
	if err != nil {
		return err
	}
	*n = *parsed
	return nil
}

func (n *Node) encode(buf *bytes.Buffer) error {
	if n == nil {
		buf.WriteString("null")
		return nil
	}
	switch n.Kind {
	case KindNull:
		buf.WriteString("null")
	case KindNumber, KindBool:
		buf.WriteString(n.Text)
	case KindString:
		return encodeString(buf, n.Text)
	case KindObject:
		buf.WriteByte('{')
		for i, m := range n.Members {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, m.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindArray:
		buf.WriteByte('[')
		for i, item := range n.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("unknown node kind %d", n.Kind)
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
