package graph

import (
	"slices"
	"sync"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

// Factory creates nodes by type name.
type Factory interface {
	Create(typeName string) (*Node, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(typeName string) (*Node, error)

// Create calls f(typeName).
func (f FactoryFunc) Create(typeName string) (*Node, error) { return f(typeName) }

// Catalog is a Factory backed by builder functions.
type Catalog struct {
	mu       sync.RWMutex
	builders map[string]func() *Node
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{builders: make(map[string]func() *Node)}
}

// Register adds a builder for typeName. A builder must return a fresh node
// with its ports in place.
func (c *Catalog) Register(typeName string, build func() *Node) error {
	if err := errs.ValidateTypeName(typeName); err != nil {
		return err
	}
	if build == nil {
		return errs.New(errs.ErrCodeInvalidInput, "builder for %s is nil", typeName)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.builders[typeName]; ok {
		return errs.New(errs.ErrCodeDuplicate, "node type %s already registered", typeName)
	}
	c.builders[typeName] = build
	return nil
}

// Create builds a node of the named type.
func (c *Catalog) Create(typeName string) (*Node, error) {
	c.mu.RLock()
	build, ok := c.builders[typeName]
	c.mu.RUnlock()
	if !ok {
		return nil, errs.New(errs.ErrCodeUnknownType, "unknown node type %q", typeName)
	}
	n := build()
	if n == nil {
		return nil, errs.New(errs.ErrCodeInternal, "builder for %s returned nil", typeName)
	}
	n.Type = typeName
	return n, nil
}

// Types returns the registered node type names, sorted.
func (c *Catalog) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.builders))
	for name := range c.builders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
