package services

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/core/ports/driven"
	"github.com/custodia-labs/neuroconv/internal/logger"
	"github.com/custodia-labs/neuroconv/internal/schema"
)

// Interfaces is the ordered set of data interfaces instantiated for one run.
type Interfaces struct {
	names     []string
	byName    map[string]driven.DataInterface
	proposals map[string]domain.Metadata
}

// Names returns plugin names in registry order.
func (s *Interfaces) Names() []string {
	return append([]string(nil), s.names...)
}

// Get returns the named interface.
func (s *Interfaces) Get(name string) (driven.DataInterface, bool) {
	iface, ok := s.byName[name]
	return iface, ok
}

// Len returns the number of interfaces.
func (s *Interfaces) Len() int {
	return len(s.names)
}

// Proposals returns each plugin's metadata proposal in registry order.
func (s *Interfaces) Proposals() []Proposal {
	out := make([]Proposal, len(s.names))
	for i, name := range s.names {
		out[i] = Proposal{Plugin: name, Metadata: s.proposals[name].Clone()}
	}
	return out
}

// Instantiate builds one data interface per source entry, in order.
//
// Every name is checked against plugins before anything is constructed, so an
// unknown name fails with domain.ErrUnknownPlugin without side effects.
// Construction is fail-fast: the first failing plugin aborts the batch and its
// name is attached to the returned error.
func Instantiate(sourceData domain.SourceData, plugins driven.PluginTable) (*Interfaces, error) {
	seen := make(map[string]bool, len(sourceData))
	var unknown []string
	for _, entry := range sourceData {
		if entry.Name == "" {
			return nil, fmt.Errorf("%w: empty plugin name in source data", domain.ErrConfiguration)
		}
		if seen[entry.Name] {
			return nil, &domain.PluginError{
				Plugin: entry.Name,
				Err:    fmt.Errorf("%w: duplicate plugin name", domain.ErrConfiguration),
			}
		}
		seen[entry.Name] = true
		if _, ok := plugins[entry.Name]; !ok {
			unknown = append(unknown, entry.Name)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %q (known: %v)", domain.ErrUnknownPlugin, unknown, sortedNames(plugins))
	}

	set := &Interfaces{
		names:     make([]string, 0, len(sourceData)),
		byName:    make(map[string]driven.DataInterface, len(sourceData)),
		proposals: make(map[string]domain.Metadata, len(sourceData)),
	}
	for _, entry := range sourceData {
		class := plugins[entry.Name]

		config, err := schema.Validate(class.SourceSchema(), entry.Config)
		if err != nil {
			return nil, &domain.PluginError{
				Plugin: entry.Name,
				Path:   "source_data",
				Err:    configurationError(err),
			}
		}

		logger.Debug("Instantiating %s (%s)", entry.Name, class.Kind())
		iface, err := class.New(config)
		if err != nil {
			return nil, &domain.PluginError{Plugin: entry.Name, Err: err}
		}

		proposal, err := domain.NormaliseMetadata(iface.Metadata())
		if err != nil {
			return nil, &domain.PluginError{Plugin: entry.Name, Path: "metadata", Err: err}
		}

		set.names = append(set.names, entry.Name)
		set.byName[entry.Name] = iface
		set.proposals[entry.Name] = proposal
	}
	return set, nil
}

// configurationError maps a schema failure onto the configuration sentinel.
func configurationError(err error) error {
	if errors.Is(err, schema.ErrInvalidSchema) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
}
