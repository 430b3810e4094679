package datainterfaces

import (
	"github.com/custodia-labs/neuroconv/internal/datainterfaces/mock"
	"github.com/custodia-labs/neuroconv/internal/datainterfaces/spikeglx"
	"github.com/custodia-labs/neuroconv/internal/datainterfaces/timeintervals"
)

// RegisterDefaults registers all built-in classes with the catalog.
// Call this during application initialisation.
func RegisterDefaults(c *Catalog) {
	c.Register(spikeglx.Class{})
	c.Register(mock.NIDQClass{})
	c.Register(timeintervals.Class{})
}

// Default returns a catalog holding the built-in classes.
func Default() *Catalog {
	c := NewCatalog()
	RegisterDefaults(c)
	return c
}
