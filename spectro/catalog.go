package spectro

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// ErrDuplicateBand reports a band ID that is already present.
	ErrDuplicateBand = errors.New("duplicate band")
	// ErrCatalogFrozen reports a mutation after Freeze.
	ErrCatalogFrozen = errors.New("catalog is frozen")
	// ErrBadBand reports a band that fails validation.
	ErrBadBand = errors.New("invalid band")
)

// Catalog is an in-memory store of absorption bands. It is filled with Add
// and then frozen; a frozen catalog is read-only and safe for concurrent
// readers without locking.
type Catalog struct {
	mu     sync.RWMutex
	byID   map[string]int
	bands  []Band
	frozen atomic.Bool
}

// NewCatalog constructs an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byID: make(map[string]int)}
}

// Add stores a copy of b. It fails if the catalog is frozen, the ID already
// exists or the band is invalid.
func (c *Catalog) Add(b Band) error {
	if err := b.validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen.Load() {
		return fmt.Errorf("add band %q: %w", b.ID, ErrCatalogFrozen)
	}
	if _, exists := c.byID[b.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateBand, b.ID)
	}
	b.Lines = append([]Line(nil), b.Lines...)
	c.byID[b.ID] = len(c.bands)
	c.bands = append(c.bands, b)
	return nil
}

// Freeze makes the catalog read-only. It is idempotent.
func (c *Catalog) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen.Store(true)
}

// Frozen reports whether Freeze has been called.
func (c *Catalog) Frozen() bool { return c.frozen.Load() }

// Band returns the band with the given ID.
func (c *Catalog) Band(id string) (Band, bool) {
	if !c.frozen.Load() {
		c.mu.RLock()
		defer c.mu.RUnlock()
	}
	i, ok := c.byID[id]
	if !ok {
		return Band{}, false
	}
	return c.bands[i], true
}

// Bands returns the bands in insertion order. The slice must not be
// modified.
func (c *Catalog) Bands() []Band {
	if c.frozen.Load() {
		return c.bands
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Band(nil), c.bands...)
}

// Species returns the distinct species in insertion order.
func (c *Catalog) Species() []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range c.Bands() {
		if !seen[b.Species] {
			seen[b.Species] = true
			out = append(out, b.Species)
		}
	}
	return out
}
