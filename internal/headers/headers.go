package headers

import (
	"bytes"
	"fmt"
	"strings"
)

// Headers is a multi-valued header collection. Lookups are case-insensitive;
// iteration preserves the order keys were first inserted in, which is the
// order they are serialized onto the wire.
type Headers struct {
	keys   []string            // lowercase keys, insertion order
	names  map[string]string   // lowercase key -> first-seen display casing
	values map[string][]string // lowercase key -> values, insertion order
}

func New() *Headers {
	return &Headers{
		names:  make(map[string]string),
		values: make(map[string][]string),
	}
}

// Get returns the first value for a header.
func (h *Headers) Get(key string) (string, bool) {
	values := h.values[strings.ToLower(key)]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// GetAll returns all values for a header.
func (h *Headers) GetAll(key string) []string {
	return h.values[strings.ToLower(key)]
}

// Set replaces all values for a header. A key that already exists keeps its
// original position in the serialization order.
func (h *Headers) Set(key, value string) {
	lower := strings.ToLower(key)
	if _, ok := h.values[lower]; !ok {
		h.keys = append(h.keys, lower)
		h.names[lower] = key
	}
	h.values[lower] = []string{value}
}

// Add appends a value to a header.
func (h *Headers) Add(key, value string) {
	lower := strings.ToLower(key)
	if _, ok := h.values[lower]; !ok {
		h.keys = append(h.keys, lower)
		h.names[lower] = key
	}
	h.values[lower] = append(h.values[lower], value)
}

// Del removes a header.
func (h *Headers) Del(key string) {
	lower := strings.ToLower(key)
	if _, ok := h.values[lower]; !ok {
		return
	}
	delete(h.values, lower)
	delete(h.names, lower)
	for i, k := range h.keys {
		if k == lower {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of distinct header keys.
func (h *Headers) Len() int {
	return len(h.keys)
}

// Each calls fn for every header line in insertion order. Keys retain the
// casing they were first inserted with; repeated values yield repeated calls.
func (h *Headers) Each(fn func(name, value string)) {
	for _, k := range h.keys {
		for _, v := range h.values[k] {
			fn(h.names[k], v)
		}
	}
}

// Parse parses a header block terminated by a blank line. The terminator is
// optional; running out of input also ends the block.
func Parse(data []byte) (*Headers, error) {
	h := New()
	read := 0

	for read < len(data) {
		idx := bytes.Index(data[read:], []byte("\r\n"))
		if idx == -1 {
			break
		}
		if idx == 0 {
			// Empty line = end of headers
			break
		}

		line := data[read : read+idx]

		// Obsolete line folding is rejected outright.
		if line[0] == ' ' || line[0] == '\t' {
			return nil, fmt.Errorf("obsolete line folding not supported")
		}

		name, value, err := parseLine(line)
		if err != nil {
			return nil, err
		}
		h.Add(name, value)

		read += idx + 2
	}

	return h, nil
}

func parseLine(line []byte) (string, string, error) {
	colonIdx := bytes.IndexByte(line, ':')
	if colonIdx == -1 {
		return "", "", fmt.Errorf("malformed header: no colon")
	}

	name := line[:colonIdx]
	value := line[colonIdx+1:]

	if bytes.ContainsAny(name, " \t") {
		return "", "", fmt.Errorf("malformed header: whitespace in name")
	}
	for _, b := range name {
		if !isValidHeaderChar(b) {
			return "", "", fmt.Errorf("invalid character in header name: %c", b)
		}
	}

	value = bytes.TrimSpace(value)

	return string(name), string(value), nil
}

func isValidHeaderChar(b byte) bool {
	return (b >= 'A' && b <= 'Z') ||
		(b >= 'a' && b <= 'z') ||
		(b >= '0' && b <= '9') ||
		b == '!' || b == '#' || b == '$' || b == '%' || b == '&' ||
		b == '\'' || b == '*' || b == '+' || b == '-' || b == '.' ||
		b == '^' || b == '_' || b == '`' || b == '|' || b == '~'
}
