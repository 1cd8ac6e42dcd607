package catalog

import (
	"fmt"
	"sync"

	"github.com/presentable/feedback/core"
)

// InMemory is a mutex-guarded core.Catalog keeping definitions in a process
// local map. Definitions are validated on the way in and cloned on the way
// out so registered forms stay immutable.
type InMemory struct {
	mu    sync.RWMutex
	forms map[string]core.FormDefinition
	order []string
}

// NewInMemory constructs an empty catalog.
func NewInMemory() *InMemory {
	return &InMemory{forms: make(map[string]core.FormDefinition)}
}

// Register adds a new definition. Fails with core.ErrDuplicateForm if the id
// is already registered.
func (c *InMemory) Register(form core.FormDefinition) error {
	if err := form.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.forms[form.ID]; exists {
		return fmt.Errorf("%w: %q", core.ErrDuplicateForm, form.ID)
	}
	c.forms[form.ID] = form.Clone()
	c.order = append(c.order, form.ID)
	return nil
}

// Reregister overwrites an existing definition or adds a new one (last writer
// wins). A form keeps its original insertion position when overwritten.
func (c *InMemory) Reregister(form core.FormDefinition) error {
	if err := form.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.forms[form.ID]; !exists {
		c.order = append(c.order, form.ID)
	}
	c.forms[form.ID] = form.Clone()
	return nil
}

// Get returns a copy of the definition or core.ErrFormNotFound.
func (c *InMemory) Get(formID string) (core.FormDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	form, ok := c.forms[formID]
	if !ok {
		return core.FormDefinition{}, fmt.Errorf("%w: %q", core.ErrFormNotFound, formID)
	}
	return form.Clone(), nil
}

// List returns all definitions in insertion order.
func (c *InMemory) List() []core.FormDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.FormDefinition, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.forms[id].Clone())
	}
	return out
}
