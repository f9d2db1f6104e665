package http

import "strings"

// Headers is an ordered, case-insensitive header collection. Names are
// folded to lower case with underscores mapped to dashes; insertion order is
// preserved for the wire form.
type Headers struct {
	entries [][2]string
}

// NewHeaders seeds a collection from raw name/value pairs, preserving order.
func NewHeaders(raw [][2]string) *Headers {
	h := &Headers{entries: make([][2]string, 0, len(raw))}
	for _, kv := range raw {
		h.entries = append(h.entries, [2]string{foldName(kv[0]), kv[1]})
	}
	return h
}

func foldName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", "-"))
}

// Get returns the value of the named header, or "" when absent.
func (h *Headers) Get(name string) string {
	name = foldName(name)
	for _, kv := range h.entries {
		if kv[0] == name {
			return kv[1]
		}
	}
	return ""
}

// Has reports whether the named header is present.
func (h *Headers) Has(name string) bool {
	name = foldName(name)
	for _, kv := range h.entries {
		if kv[0] == name {
			return true
		}
	}
	return false
}

// Set replaces the named header, appending it when absent.
func (h *Headers) Set(name, value string) *Headers {
	name = foldName(name)
	for i, kv := range h.entries {
		if kv[0] == name {
			h.entries[i][1] = value
			return h
		}
	}
	h.entries = append(h.entries, [2]string{name, value})
	return h
}

// Add appends a value to the named header. A duplicate name joins the new
// value onto the existing one with ", ", matching the comma-separated list
// form header fields use on the wire.
func (h *Headers) Add(name, value string) *Headers {
	name = foldName(name)
	for i, kv := range h.entries {
		if kv[0] == name {
			h.entries[i][1] = kv[1] + ", " + value
			return h
		}
	}
	h.entries = append(h.entries, [2]string{name, value})
	return h
}

// Del removes the named header.
func (h *Headers) Del(name string) {
	name = foldName(name)
	out := h.entries[:0]
	for _, kv := range h.entries {
		if kv[0] != name {
			out = append(out, kv)
		}
	}
	h.entries = out
}

// Len returns the number of header fields.
func (h *Headers) Len() int {
	return len(h.entries)
}

// Raw returns the wire form: folded name/value pairs in insertion order. The
// returned slice is shared; callers must not mutate it.
func (h *Headers) Raw() [][2]string {
	return h.entries
}

// Clone returns an independent copy.
func (h *Headers) Clone() *Headers {
	out := make([][2]string, len(h.entries))
	copy(out, h.entries)
	return &Headers{entries: out}
}
