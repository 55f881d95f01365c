// Package config loads secretwire.yaml: connector definitions, custom
// shapes, secret declarations, and the per-unit injection requests. Load
// parses and schema-validates the file; Build turns the definition into a
// populated registry and request set ready for the engine.
package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	swerrors "github.com/systmms/secretwire/internal/errors"
	"github.com/systmms/secretwire/internal/inject"
	"github.com/systmms/secretwire/internal/registry"
	"github.com/systmms/secretwire/internal/shapes"
	"github.com/systmms/secretwire/pkg/connector"
	"github.com/systmms/secretwire/pkg/shape"
)

// DefaultPath is where the CLI looks for the definition file.
const DefaultPath = "secretwire.yaml"

// Definition represents the secretwire.yaml structure.
type Definition struct {
	Version          int                        `yaml:"version"`
	DefaultConnector string                     `yaml:"defaultConnector,omitempty"`
	Connectors       map[string]ConnectorConfig `yaml:"connectors"`
	Shapes           map[string]ShapeConfig     `yaml:"shapes,omitempty"`
	Secrets          []SecretConfig             `yaml:"secrets"`
	Units            map[string][]RequestConfig `yaml:"units"`
}

// ConnectorConfig holds one connector's type and settings. Settings are
// connector-specific and flow to the factory untouched.
type ConnectorConfig struct {
	Type      string                 `yaml:"type"`
	TimeoutMs int                    `yaml:"timeout_ms,omitempty"`
	Settings  map[string]interface{} `yaml:",inline"`
}

// ShapeConfig declares a custom shape's field schema.
type ShapeConfig struct {
	Fields []FieldConfig `yaml:"fields"`
}

// FieldConfig declares one field of a custom shape.
type FieldConfig struct {
	Name   string   `yaml:"name"`
	Kinds  []string `yaml:"kinds,omitempty"`
	Binary bool     `yaml:"binary,omitempty"`
}

// SecretConfig declares one secret: its name, shape, and origin.
type SecretConfig struct {
	Name      string `yaml:"name"`
	Shape     string `yaml:"shape"`
	Connector string `yaml:"connector,omitempty"`
}

// RequestConfig is one injection request of a unit. Exactly one of Env,
// Volume, Annotation selects the kind.
type RequestConfig struct {
	Secret     string        `yaml:"secret"`
	Field      string        `yaml:"field,omitempty"`
	Env        string        `yaml:"env,omitempty"`
	Volume     *VolumeConfig `yaml:"volume,omitempty"`
	Annotation string        `yaml:"annotation,omitempty"`
}

// VolumeConfig holds volume-kind request options.
type VolumeConfig struct {
	MountPath string `yaml:"mountPath"`
	FileName  string `yaml:"fileName,omitempty"`
}

// Load reads, schema-validates, and parses a definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, swerrors.UserError{
				Message:    fmt.Sprintf("No configuration file found at %s", path),
				Suggestion: "Create a secretwire.yaml or pass --config",
				Err:        err,
			}
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if def.Version != 1 {
		return nil, swerrors.ConfigError{
			Field:      "version",
			Value:      def.Version,
			Message:    "unsupported config version",
			Suggestion: "Set version: 1",
		}
	}
	return &def, nil
}

// ConnectorFactory builds a connector from its type and settings; it is
// satisfied by connectors.FactoryRegistry.
type ConnectorFactory interface {
	Create(connectorType, name string, settings map[string]interface{}) (connector.Connector, error)
}

// Build turns a definition into a populated registry and request set.
// Connectors come wrapped with their fetch timeout; built-in shapes are
// always registered.
func (d *Definition) Build(factory ConnectorFactory) (*registry.Registry, *inject.Set, error) {
	reg := registry.New()

	for _, id := range shapes.BuiltinIDs() {
		prov, _ := shapes.Builtin(id)
		if err := reg.AddProvider(id, prov); err != nil {
			return nil, nil, err
		}
	}
	if err := d.buildShapes(reg); err != nil {
		return nil, nil, err
	}
	if err := d.buildConnectors(reg, factory); err != nil {
		return nil, nil, err
	}
	if err := d.buildSecrets(reg); err != nil {
		return nil, nil, err
	}

	set, err := d.buildRequests()
	if err != nil {
		return nil, nil, err
	}
	return reg, set, nil
}

func (d *Definition) buildShapes(reg *registry.Registry) error {
	ids := make([]string, 0, len(d.Shapes))
	for id := range d.Shapes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		cfg := d.Shapes[id]
		fields := make([]shape.FieldSpec, 0, len(cfg.Fields))
		for _, f := range cfg.Fields {
			if f.Name == "" {
				return swerrors.ConfigError{
					Field:   fmt.Sprintf("shapes.%s.fields", id),
					Message: "field name is required",
				}
			}
			kinds := make([]shape.Kind, 0, len(f.Kinds))
			for _, k := range f.Kinds {
				kind := shape.Kind(k)
				switch kind {
				case shape.KindEnv, shape.KindVolume, shape.KindAnnotation:
					kinds = append(kinds, kind)
				default:
					return swerrors.ConfigError{
						Field:      fmt.Sprintf("shapes.%s.fields.%s.kinds", id, f.Name),
						Value:      k,
						Message:    "unknown injection kind",
						Suggestion: "Use env, volume, or annotation",
					}
				}
			}
			fields = append(fields, shape.FieldSpec{Name: f.Name, Kinds: kinds, Binary: f.Binary})
		}

		prov, err := shapes.FromDeclaration(id, fields)
		if err != nil {
			return swerrors.ConfigError{
				Field:   fmt.Sprintf("shapes.%s", id),
				Message: err.Error(),
			}
		}
		if err := reg.AddProvider(id, prov); err != nil {
			return err
		}
	}
	return nil
}

func (d *Definition) buildConnectors(reg *registry.Registry, factory ConnectorFactory) error {
	ids := make([]string, 0, len(d.Connectors))
	for id := range d.Connectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		cfg := d.Connectors[id]
		if cfg.Type == "" {
			return swerrors.ConfigError{
				Field:      fmt.Sprintf("connectors.%s", id),
				Message:    "connector type is required",
				Suggestion: "Set type to one of the supported connector types",
			}
		}

		c, err := factory.Create(cfg.Type, id, cfg.Settings)
		if err != nil {
			return swerrors.ConnectorError(cfg.Type, "create", err)
		}

		timeout := connector.DefaultTimeout
		if cfg.TimeoutMs > 0 {
			timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
		}
		if err := reg.AddConnector(id, connector.WithTimeout(c, timeout)); err != nil {
			return err
		}
	}

	switch {
	case d.DefaultConnector != "":
		return reg.SetDefaultConnector(d.DefaultConnector)
	case len(ids) == 1:
		// A single connector is the obvious default.
		return reg.SetDefaultConnector(ids[0])
	}
	return nil
}

func (d *Definition) buildSecrets(reg *registry.Registry) error {
	for _, s := range d.Secrets {
		if s.Name == "" {
			return swerrors.ConfigError{
				Field:   "secrets",
				Message: "secret name is required",
			}
		}
		if s.Shape == "" {
			return swerrors.ConfigError{
				Field:      fmt.Sprintf("secrets.%s", s.Name),
				Message:    "shape is required",
				Suggestion: fmt.Sprintf("Use a built-in shape (%v) or declare one under shapes:", shapes.BuiltinIDs()),
			}
		}
		err := reg.AddSecret(registry.SecretDeclaration{
			Name:        s.Name,
			ProviderID:  s.Shape,
			ConnectorID: s.Connector,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Definition) buildRequests() (*inject.Set, error) {
	set := inject.NewSet()

	units := make([]string, 0, len(d.Units))
	for unit := range d.Units {
		units = append(units, unit)
	}
	sort.Strings(units)

	for _, unit := range units {
		u := set.Unit(unit)
		for i, req := range d.Units[unit] {
			if req.Secret == "" {
				return nil, swerrors.ConfigError{
					Field:   fmt.Sprintf("units.%s[%d]", unit, i),
					Message: "secret is required",
				}
			}

			kinds := 0
			if req.Env != "" {
				kinds++
			}
			if req.Volume != nil {
				kinds++
			}
			if req.Annotation != "" {
				kinds++
			}
			if kinds != 1 {
				return nil, swerrors.ConfigError{
					Field:      fmt.Sprintf("units.%s[%d]", unit, i),
					Message:    "exactly one of env, volume, annotation must be set",
					Suggestion: "Pick the injection kind for this request",
				}
			}

			switch {
			case req.Env != "":
				u.Env(req.Secret, req.Field, req.Env)
			case req.Volume != nil:
				if req.Volume.MountPath == "" {
					return nil, swerrors.ConfigError{
						Field:   fmt.Sprintf("units.%s[%d].volume", unit, i),
						Message: "mountPath is required",
					}
				}
				if req.Volume.FileName != "" {
					u.VolumeFile(req.Secret, req.Field, req.Volume.MountPath, req.Volume.FileName)
				} else {
					u.Volume(req.Secret, req.Field, req.Volume.MountPath)
				}
			default:
				u.Annotation(req.Secret, req.Field, req.Annotation)
			}
		}
	}
	return set, nil
}
