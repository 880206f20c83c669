package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Explain returns the effective value at a YAML path and the source that
// last set it. Paths use the same form as Sources, e.g.
//
//	gaps.inner_gap
//	workspaces[0].name
//	binding_modes[1].keybindings
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	tokens, err := splitPath(path)
	if err != nil {
		return nil, Source{}, err
	}
	value, err := lookupValue(res.Config, tokens)
	if err != nil {
		return nil, Source{}, fmt.Errorf("%w: %s", err, path)
	}

	// Sequences are replaced wholesale, so a file that set a sequence or
	// one of its elements also set everything beneath it. Mappings merge.
	for i := len(tokens); i > 0; i-- {
		src, ok := res.Sources[joinPath(tokens[:i])]
		if !ok {
			continue
		}
		if i == len(tokens) || isIndex(tokens[i-1]) || isIndex(tokens[i]) {
			return value, src, nil
		}
	}
	return value, Source{Kind: SourceDefault}, nil
}

// splitPath breaks "a.b[2].c" into ["a", "b", "[2]", "c"].
func splitPath(path string) ([]string, error) {
	var tokens []string
	for _, part := range strings.Split(path, ".") {
		name, rest, _ := strings.Cut(part, "[")
		if name == "" && rest == "" {
			return nil, fmt.Errorf("invalid path: %s", path)
		}
		if name != "" {
			tokens = append(tokens, name)
		}
		for rest != "" {
			idx, tail, ok := strings.Cut(rest, "]")
			if !ok || idx == "" {
				return nil, fmt.Errorf("invalid path: %s", path)
			}
			tokens = append(tokens, "["+idx+"]")
			rest = strings.TrimPrefix(tail, "[")
			if tail != "" && !strings.HasPrefix(tail, "[") {
				return nil, fmt.Errorf("invalid path: %s", path)
			}
		}
	}
	return tokens, nil
}

func isIndex(token string) bool {
	return strings.HasPrefix(token, "[")
}

func joinPath(tokens []string) string {
	var b strings.Builder
	for i, t := range tokens {
		if i > 0 && !strings.HasPrefix(t, "[") {
			b.WriteByte('.')
		}
		b.WriteString(t)
	}
	return b.String()
}

func lookupValue(cfg *Config, tokens []string) (any, error) {
	var root yaml.Node
	if err := root.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}

	node := &root
	for _, part := range tokens {
		next, err := child(node, part)
		if err != nil {
			return nil, fmt.Errorf("unknown path")
		}
		node = next
	}

	var value any
	if err := node.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}

func child(node *yaml.Node, key string) (*yaml.Node, error) {
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				return node.Content[i+1], nil
			}
		}
	case yaml.SequenceNode:
		if !strings.HasPrefix(key, "[") {
			break
		}
		idx, err := strconv.Atoi(strings.Trim(key, "[]"))
		if err == nil && idx >= 0 && idx < len(node.Content) {
			return node.Content[idx], nil
		}
	}
	return nil, fmt.Errorf("no %q", key)
}
