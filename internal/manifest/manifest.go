// Package manifest reads YAML expectation manifests. A manifest lists
// checks; each check names one element of a loaded program and the
// annotations it must carry:
//
//	checks:
//	  - name: controller routes
//	    method: web.UserController.List(int, int)
//	    mode: only
//	    annotations:
//	      - type: web.Route
//	        params:
//	          path: /users
//	          methods: [GET, POST]
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/toyz/annotest/internal/errors"
	"github.com/toyz/annotest/pkg/annotest"
)

// Manifest is a list of checks
type Manifest struct {
	// Dir is the package directory to load, relative to the manifest file;
	// the manifest's own directory when empty
	Dir    string  `yaml:"dir"`
	Checks []Check `yaml:"checks"`

	path string
}

// Check is one validation session against one element
type Check struct {
	Name string `yaml:"name"`

	// exactly one target key is set
	Type        string `yaml:"type"`
	Method      string `yaml:"method"`
	Field       string `yaml:"field"`
	Constructor string `yaml:"constructor"`

	Mode            string       `yaml:"mode"`
	Blacklist       []string     `yaml:"blacklist"`
	MatchReturnType bool         `yaml:"match_return_type"`
	Annotations     []Annotation `yaml:"annotations"`

	line int
}

// Annotation is one expected annotation. Params keep their manifest order.
type Annotation struct {
	Type   string  `yaml:"type"`
	Params []Param `yaml:"-"`
}

// Param is one expected parameter; a YAML list gives several values
type Param struct {
	Name   string
	Values []any
}

// UnmarshalYAML decodes params from an ordered mapping
func (a *Annotation) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Type   string    `yaml:"type"`
		Params yaml.Node `yaml:"params"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	a.Type = raw.Type
	a.Params = nil

	switch {
	case raw.Params.Kind == 0, raw.Params.Tag == "!!null":
		return nil
	case raw.Params.Kind == yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: params of %s must be a mapping", raw.Params.Line, raw.Type)
	}

	content := raw.Params.Content
	for i := 0; i+1 < len(content); i += 2 {
		key, value := content[i], content[i+1]
		param := Param{Name: key.Value}
		if value.Kind == yaml.SequenceNode {
			param.Values = make([]any, 0, len(value.Content))
			for _, item := range value.Content {
				v, err := decodeValue(item)
				if err != nil {
					return err
				}
				param.Values = append(param.Values, v)
			}
		} else {
			v, err := decodeValue(value)
			if err != nil {
				return err
			}
			param.Values = []any{v}
		}
		a.Params = append(a.Params, param)
	}
	return nil
}

func decodeValue(node *yaml.Node) (any, error) {
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, fmt.Errorf("line %d: %w", node.Line, err)
	}
	return v, nil
}

// UnmarshalYAML records the check's line for error messages
func (c *Check) UnmarshalYAML(node *yaml.Node) error {
	type plain Check
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = Check(p)
	c.line = node.Line
	return nil
}

// Label names the check in reports
func (c *Check) Label() string {
	if c.Name != "" {
		return c.Name
	}
	for _, s := range []string{c.Type, c.Method, c.Field, c.Constructor} {
		if s != "" {
			return s
		}
	}
	return fmt.Sprintf("check at line %d", c.line)
}

// Load reads and validates a manifest file
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapManifestError(path, err)
	}
	return Parse(path, data)
}

// Parse decodes and validates manifest text; path is used in errors only
func Parse(path string, data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.WrapManifestError(path, err)
	}
	m.path = path
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Path returns the file the manifest was read from
func (m *Manifest) Path() string {
	return m.path
}

// LoadDir returns the package directory the manifest applies to
func (m *Manifest) LoadDir() string {
	base := filepath.Dir(m.path)
	switch {
	case m.Dir == "":
		return base
	case filepath.IsAbs(m.Dir):
		return m.Dir
	default:
		return filepath.Join(base, m.Dir)
	}
}

// Validate checks the manifest's structure; it does not resolve names
func (m *Manifest) Validate() error {
	errs := errors.NewMultipleErrors()
	if len(m.Checks) == 0 {
		errs.Add(errors.New(errors.ManifestErrorCode, "manifest has no checks"))
	}
	for i := range m.Checks {
		c := &m.Checks[i]
		loc := errors.SourceLocation{File: m.path, Line: c.line}
		if _, err := c.Target(); err != nil {
			errs.Add(errors.Wrap(errors.ManifestErrorCode, c.Label(), err).WithLocation(loc))
		}
		if _, ok := annotest.ParseMode(c.Mode); !ok {
			errs.Add(errors.Newf(errors.ManifestErrorCode, "%s: unknown mode %q", c.Label(), c.Mode).
				WithLocation(loc).
				WithSuggestion("Use one of default, exactly or only"))
		}
		for _, a := range c.Annotations {
			if a.Type == "" {
				errs.Add(errors.Newf(errors.ManifestErrorCode, "%s: annotation without type", c.Label()).WithLocation(loc))
			}
		}
	}
	return errs.ErrorOrNil()
}
