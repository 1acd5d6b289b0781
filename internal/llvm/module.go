package llvm

import (
	"fmt"
	"strings"
)

// Module is a translation unit: function definitions, aliases and an
// optional producer identification.
type Module struct {
	Functions []*Function
	Aliases   []*Alias
	Identity  string
}

// NewModule creates an empty module.
func NewModule() *Module {
	return &Module{}
}

// AddFunction appends a function definition.
func (m *Module) AddFunction(f *Function) {
	m.Functions = append(m.Functions, f)
}

// AddAlias appends an alias declaration.
func (m *Module) AddAlias(a *Alias) {
	m.Aliases = append(m.Aliases, a)
}

// Function looks a function up by name.
func (m *Module) Function(name string) *Function {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// HasGlobal reports whether a function or alias already uses name.
func (m *Module) HasGlobal(name string) bool {
	if m.Function(name) != nil {
		return true
	}
	for _, a := range m.Aliases {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Serialize renders the module as textual IR.
func (m *Module) Serialize() (string, error) {
	defs := make([]string, 0, len(m.Functions))
	for _, f := range m.Functions {
		def, err := f.Definition()
		if err != nil {
			return "", err
		}
		defs = append(defs, def)
	}
	out := strings.Join(defs, "\n")
	if len(m.Aliases) > 0 {
		if out != "" {
			out += "\n"
		}
		for _, a := range m.Aliases {
			out += a.Declaration()
		}
	}
	if m.Identity != "" {
		if out != "" {
			out += "\n"
		}
		out += "!llvm.ident = !{!0}\n"
		out += fmt.Sprintf("!0 = !{!%s}\n", quoted([]byte(m.Identity)))
	}
	return out, nil
}
