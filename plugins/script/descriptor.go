package script

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"github.com/bft-labs/abacus/internal/command"
	"github.com/bft-labs/abacus/internal/registry"
	"github.com/bft-labs/abacus/pkg/operation"
)

// Descriptor declares a command backed by a library operation.
type Descriptor struct {
	// Type is the declared type name, e.g. "DoubleCommand".
	Type string `toml:"type" yaml:"type"`

	// Operation is a library operation name, e.g. "multiply".
	Operation string `toml:"operation" yaml:"operation"`

	// Right, when set, is supplied as the right operand and the command takes
	// one argument less.
	Right string `toml:"right" yaml:"right"`

	Description string `toml:"description" yaml:"description"`
}

// DescriptorCommand is a command defined by a Descriptor file.
type DescriptorCommand struct {
	*command.Arithmetic
	typeName    string
	description string
}

// TypeName returns the declared type name from the descriptor.
func (c *DescriptorCommand) TypeName() string {
	return c.typeName
}

// Description returns the descriptor's description, if any.
func (c *DescriptorCommand) Description() string {
	return c.description
}

// Build validates d and creates its command.
func (d Descriptor) Build(env *command.Env) (*DescriptorCommand, error) {
	if d.Type == "" {
		return nil, errors.New("descriptor: type is required")
	}
	name := registry.DeriveName(d.Type)
	if name == "" {
		return nil, fmt.Errorf("descriptor: type %q derives an empty command name", d.Type)
	}

	kind, err := operation.Parse(d.Operation)
	if err != nil {
		return nil, fmt.Errorf("descriptor: %w", err)
	}

	base := command.NewArithmetic(env, kind).WithFixed(name)
	if d.Right != "" {
		if kind.Arity() < 2 {
			return nil, fmt.Errorf("descriptor: %s takes no right operand", kind)
		}
		right, err := decimal.NewFromString(d.Right)
		if err != nil {
			return nil, fmt.Errorf("descriptor: right operand %q is not a number", d.Right)
		}
		base = base.WithFixed(name, right)
	}

	return &DescriptorCommand{Arithmetic: base, typeName: d.Type, description: d.Description}, nil
}

func loadTOMLDescriptor(path string, env *command.Env) ([]command.Command, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Descriptor
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return buildOne(d, env)
}

func loadYAMLDescriptor(path string, env *command.Env) ([]command.Command, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Descriptor
	if err := yaml.UnmarshalStrict(b, &d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return buildOne(d, env)
}

func buildOne(d Descriptor, env *command.Env) ([]command.Command, error) {
	cmd, err := d.Build(env)
	if err != nil {
		return nil, err
	}
	return []command.Command{cmd}, nil
}
