// pkg/flags/flags.go
package flags

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	jmes "github.com/jmespath/go-jmespath"
	"gopkg.in/yaml.v3"
)

// Known future flags.
const (
	V3AuthenticatePublic = "v3_authenticatePublic"
)

// futureKey is the document key hosts use to group future flags.
const futureKey = "future"

// Configuration maps a flag name to its value (bool or a version marker).
// It is built once at configuration time and never mutated afterwards.
type Configuration map[string]any

// Enabled reports whether flag name is switched on in cfg.
// Missing, false and unrecognised values are all reported as disabled.
func Enabled(name string, cfg Configuration) bool {
	if cfg == nil {
		return false
	}
	v, ok := cfg[name]
	if !ok {
		return false
	}
	return enabledValue(v)
}

// Enabled is the method form of the package-level Enabled.
func (c Configuration) Enabled(name string) bool { return Enabled(name, c) }

func enabledValue(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "enabled", "on":
			return true
		}
	}
	return false
}

// Lookup runs a JMESPath expression against an arbitrary host document.
func Lookup(path string, doc any) (any, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("empty flag path")
	}
	return jmes.Search(path, doc)
}

// FromDocument extracts flags from a host configuration document.
// Flags are read from the "future" key when the document has one, else from
// the root. A "future" key with a null value means no flags are set.
func FromDocument(doc any) (Configuration, error) {
	if doc == nil {
		return Configuration{}, nil
	}
	node := doc
	if root, ok := doc.(map[string]any); ok {
		if _, present := root[futureKey]; present {
			v, err := Lookup(futureKey, doc)
			if err != nil {
				return nil, fmt.Errorf("lookup %s: %w", futureKey, err)
			}
			if v == nil {
				return Configuration{}, nil
			}
			node = v
		}
	}
	m, ok := node.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("flags: expected object, got %T", node)
	}
	out := make(Configuration, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out, nil
}

// LoadFile reads a YAML or JSON flag document from disk.
func LoadFile(path string) (Configuration, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc any
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("json parse: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("yaml parse: %w", err)
		}
	}
	return FromDocument(doc)
}

// isDocument reports whether raw is a JSON/YAML object rather than a
// name=value list. A ':' only counts when no '=' precedes it.
func isDocument(raw string) bool {
	if strings.HasPrefix(raw, "{") {
		return true
	}
	colon := strings.Index(raw, ":")
	if colon < 0 {
		return false
	}
	eq := strings.Index(raw, "=")
	return eq < 0 || colon < eq
}

// ParseEnv parses flags from an environment value. Accepted forms:
//
//	v3_authenticatePublic=true,other=false
//	{"future": {"v3_authenticatePublic": true}}
//	future: {v3_authenticatePublic: true}
func ParseEnv(raw string) (Configuration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Configuration{}, nil
	}
	if isDocument(raw) {
		var doc any
		if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("yaml parse: %w", err)
		}
		return FromDocument(doc)
	}
	out := Configuration{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, found := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if k == "" {
			return nil, fmt.Errorf("flags: bad entry %q", pair)
		}
		if !found {
			out[k] = true
			continue
		}
		v = strings.TrimSpace(v)
		if b, err := strconv.ParseBool(v); err == nil {
			out[k] = b
		} else {
			out[k] = v
		}
	}
	return out, nil
}
