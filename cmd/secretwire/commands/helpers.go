package commands

import (
	"fmt"
	"sort"

	"github.com/systmms/secretwire/internal/config"
	"github.com/systmms/secretwire/internal/connectors"
	"github.com/systmms/secretwire/internal/inject"
	"github.com/systmms/secretwire/internal/logging"
	"github.com/systmms/secretwire/internal/registry"
)

// Options carries the global flags parsed by the root command.
type Options struct {
	Path    string
	Logger  *logging.Logger
	Metrics bool
}

func (o *Options) logger() *logging.Logger {
	if o.Logger == nil {
		o.Logger = logging.New(false, true)
	}
	return o.Logger
}

// loadDefinition parses and validates the config file.
func (o *Options) loadDefinition() (*config.Definition, error) {
	def, err := config.Load(o.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return def, nil
}

// build loads the config and turns it into a registry and request set.
func (o *Options) build() (*config.Definition, *registry.Registry, *inject.Set, error) {
	def, err := o.loadDefinition()
	if err != nil {
		return nil, nil, nil, err
	}
	reg, set, err := def.Build(connectors.NewFactoryRegistry())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build registry: %w", err)
	}
	return def, reg, set, nil
}

// sortedKeys returns the connector ids of a definition, sorted.
func sortedKeys(m map[string]config.ConnectorConfig) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
