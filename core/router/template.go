package router

import (
	"fmt"
	"regexp"
	"strings"
)

// markerName is the charset for parameter names and type tags.
var markerName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

type templateParam struct {
	name  string
	conv  Converter
	group int // submatch index in the compiled expression
}

// Template is a compiled path template. Templates without markers are
// matched by direct string equality; everything else compiles into a single
// anchored expression that must consume the whole path.
type Template struct {
	raw     string
	literal bool
	re      *regexp.Regexp
	params  []templateParam
}

// compileTemplate scans raw left to right for {name} and {name:type}
// markers. Literal text is escaped and emitted verbatim; each marker becomes
// a capture bound to its converter's pattern. The type tag defaults to "str"
// and unknown tags fall back to the plain string converter. Malformed
// templates are construction errors.
func compileTemplate(raw string, converters map[string]Converter) (*Template, error) {
	if !strings.ContainsAny(raw, "{}") {
		return &Template{raw: raw, literal: true}, nil
	}

	var expr strings.Builder
	expr.WriteString("^")

	var params []templateParam
	seen := make(map[string]bool)
	rest := raw

	for {
		open := strings.IndexByte(rest, '{')
		if open == -1 {
			break
		}

		literal := rest[:open]
		if strings.IndexByte(literal, '}') != -1 {
			return nil, fmt.Errorf("unbalanced braces in path template %q", raw)
		}
		expr.WriteString(regexp.QuoteMeta(literal))

		end := strings.IndexByte(rest[open:], '}')
		if end == -1 {
			return nil, fmt.Errorf("unbalanced braces in path template %q", raw)
		}
		marker := rest[open+1 : open+end]
		rest = rest[open+end+1:]

		name, tag := marker, "str"
		if i := strings.IndexByte(marker, ':'); i != -1 {
			name, tag = marker[:i], marker[i+1:]
		}
		if !markerName.MatchString(name) {
			return nil, fmt.Errorf("invalid parameter name %q in path template %q", name, raw)
		}
		if !markerName.MatchString(tag) {
			return nil, fmt.Errorf("invalid type tag %q in path template %q", tag, raw)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate parameter %q in path template %q", name, raw)
		}
		seen[name] = true

		conv := converters[tag]
		if conv == nil {
			conv = converters["str"]
		}
		if conv == nil {
			conv = StringConverter{}
		}

		// Captures are named positionally: parameter names may contain
		// characters Go group names cannot, and converter patterns may carry
		// groups of their own.
		fmt.Fprintf(&expr, "(?P<p%d>%s)", len(params), conv.Pattern())
		params = append(params, templateParam{name: name, conv: conv})
	}

	if strings.IndexByte(rest, '}') != -1 {
		return nil, fmt.Errorf("unbalanced braces in path template %q", raw)
	}
	expr.WriteString(regexp.QuoteMeta(rest))
	expr.WriteString("$")

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, fmt.Errorf("path template %q: %w", raw, err)
	}
	for i := range params {
		params[i].group = re.SubexpIndex(fmt.Sprintf("p%d", i))
	}

	return &Template{raw: raw, re: re, params: params}, nil
}

// Raw returns the template string as registered.
func (t *Template) Raw() string { return t.raw }

// ParamNames returns the parameter names in declaration order.
func (t *Template) ParamNames() []string {
	names := make([]string, len(t.params))
	for i, p := range t.params {
		names[i] = p.name
	}
	return names
}

// Match tests path against the template and returns the raw (unconverted)
// parameter values on success.
func (t *Template) Match(path string) (map[string]string, bool) {
	if t.literal {
		if path != t.raw {
			return nil, false
		}
		return map[string]string{}, true
	}

	m := t.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	raw := make(map[string]string, len(t.params))
	for _, p := range t.params {
		raw[p.name] = m[p.group]
	}
	return raw, true
}
