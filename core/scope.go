package core

import "strings"

// Scope describes one channel at the moment the connection was accepted. The
// descriptor itself is immutable after entry; Params is the routing
// augmentation filled in when a route resolves, and State points at the
// store shared with the lifecycle handlers.
type Scope struct {
	Kind     ChannelKind
	Method   string
	Path     string
	RootPath string
	RawQuery string
	Headers  [][2]string
	Client   string

	// Params holds the converted path parameters after routing.
	Params map[string]any

	State *State
}

// Header returns the first value of a request header, case-insensitively.
func (s *Scope) Header(name string) string {
	for _, kv := range s.Headers {
		if strings.EqualFold(kv[0], name) {
			return kv[1]
		}
	}
	return ""
}

// RoutePath returns the path the router should match: the scope path with the
// mount root stripped. The root is only stripped when it is a real prefix
// followed by a separator; a path equal to the root maps to the empty string.
func RoutePath(s *Scope) string {
	path := s.Path
	root := s.RootPath

	if root == "" || !strings.HasPrefix(path, root) {
		return path
	}
	if path == root {
		return ""
	}
	if path[len(root)] == '/' {
		return path[len(root):]
	}
	return path
}
