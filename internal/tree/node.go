// Package tree holds the virtual namespace served by the server: a nested
// mapping of names to either further categories or filesystem roots.
package tree

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Node is either a *Category or a Root. The set of implementations is closed.
type Node interface {
	node()
}

// Root is a leaf of the tree pointing at a directory (or file) on disk.
type Root string

func (Root) node() {}

// Category is a named group of nodes. Keys keep the order they were added in.
type Category struct {
	keys     []string
	children map[string]Node
}

func (*Category) node() {}

func NewCategory() *Category {
	return &Category{children: make(map[string]Node)}
}

// Set adds or replaces a child. Only used while the tree is being built.
func (c *Category) Set(name string, child Node) *Category {
	if _, exists := c.children[name]; !exists {
		c.keys = append(c.keys, name)
	}
	c.children[name] = child
	return c
}

func (c *Category) Get(name string) (Node, bool) {
	child, ok := c.children[name]
	return child, ok
}

// Keys returns child names in insertion order.
func (c *Category) Keys() []string {
	keys := make([]string, len(c.keys))
	copy(keys, c.keys)
	return keys
}

func (c *Category) Len() int {
	return len(c.keys)
}

// Tree wraps the top-level node so it can be decoded from configuration.
type Tree struct {
	Root Node
}

func (t *Tree) UnmarshalYAML(value *yaml.Node) error {
	root, err := decodeNode(value, "tree")
	if err != nil {
		return err
	}
	t.Root = root
	return nil
}

func decodeNode(value *yaml.Node, at string) (Node, error) {
	switch value.Kind {
	case yaml.DocumentNode:
		if len(value.Content) != 1 {
			return nil, fmt.Errorf("%s: empty document", at)
		}
		return decodeNode(value.Content[0], at)

	case yaml.AliasNode:
		return decodeNode(value.Alias, at)

	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			return nil, fmt.Errorf("%s (line %d): filesystem root is empty", at, value.Line)
		}
		return Root(expandHome(value.Value)), nil

	case yaml.MappingNode:
		category := NewCategory()
		for i := 0; i+1 < len(value.Content); i += 2 {
			keyNode, valueNode := value.Content[i], value.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%s (line %d): category names must be scalars", at, keyNode.Line)
			}
			name := keyNode.Value
			if err := validateName(name); err != nil {
				return nil, fmt.Errorf("%s (line %d): %w", at, keyNode.Line, err)
			}
			if _, exists := category.Get(name); exists {
				return nil, fmt.Errorf("%s (line %d): duplicate name %q", at, keyNode.Line, name)
			}
			child, err := decodeNode(valueNode, at+"."+name)
			if err != nil {
				return nil, err
			}
			category.Set(name, child)
		}
		return category, nil

	default:
		return nil, fmt.Errorf("%s (line %d): expected a mapping or a path", at, value.Line)
	}
}

func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("empty name")
	case name == "." || name == "..":
		return fmt.Errorf("name %q is reserved", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("name %q contains a path separator", name)
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// Rebase returns a copy of n in which every relative Root is joined onto
// base. Absolute roots are only cleaned.
func Rebase(n Node, base string) Node {
	switch n := n.(type) {
	case Root:
		p := string(n)
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		return Root(filepath.Clean(p))
	case *Category:
		rebased := NewCategory()
		for _, key := range n.keys {
			rebased.Set(key, Rebase(n.children[key], base))
		}
		return rebased
	}
	return n
}
