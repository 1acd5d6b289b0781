package program

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/Symatem/Compiler/internal/vocab"
)

// Load error codes (E001-E009)
const (
	ErrCodeNotFound    = "E001" // file does not exist or cannot be read
	ErrCodeUnsupported = "E002" // unknown file extension
	ErrCodeSyntax      = "E003" // the file does not parse
	ErrCodeDecode      = "E004" // the file parses but does not fit a Definition
)

// LoadError reports a definition file that could not be loaded.
type LoadError struct {
	Code    string
	Message string
	File    string
	Line    int
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Code, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads a definition, choosing the format by file extension:
// .cue, .yaml/.yml or .hcl.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: err.Error(), File: path}
	}
	switch filepath.Ext(path) {
	case ".cue":
		return LoadCUE(path, data)
	case ".yaml", ".yml":
		return LoadYAML(path, data)
	case ".hcl":
		return LoadHCL(path, data)
	}
	return nil, &LoadError{Code: ErrCodeUnsupported, Message: fmt.Sprintf("unsupported extension %q", filepath.Ext(path)), File: path}
}

// LoadCUE decodes a CUE document. The document must be concrete.
func LoadCUE(filename string, data []byte) (*Definition, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, cueError(ErrCodeSyntax, filename, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(ErrCodeDecode, filename, err)
	}
	var def Definition
	if err := v.Decode(&def); err != nil {
		return nil, cueError(ErrCodeDecode, filename, err)
	}
	return &def, nil
}

func cueError(code, filename string, err error) *LoadError {
	le := &LoadError{Code: code, Message: cueerrors.Details(err, nil), File: filename}
	for _, pos := range cueerrors.Positions(err) {
		if pos.IsValid() {
			le.Line = pos.Line()
			break
		}
	}
	return le
}

// LoadYAML decodes a YAML document, rejecting unknown fields.
func LoadYAML(filename string, data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var def Definition
	if err := dec.Decode(&def); err != nil {
		var te *yaml.TypeError
		if errors.As(err, &te) {
			return nil, &LoadError{Code: ErrCodeDecode, Message: err.Error(), File: filename}
		}
		return nil, &LoadError{Code: ErrCodeSyntax, Message: err.Error(), File: filename}
	}
	return &def, nil
}

// LoadHCL decodes an HCL document. Expressions may refer to predefined
// names through the vocab object, e.g. operator = vocab.Addition.
func LoadHCL(filename string, data []byte) (*Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, hclError(ErrCodeSyntax, filename, diags)
	}
	var def Definition
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &def); diags.HasErrors() {
		return nil, hclError(ErrCodeDecode, filename, diags)
	}
	return &def, nil
}

func evalContext() *hcl.EvalContext {
	names := make(map[string]cty.Value)
	for _, name := range vocab.Names() {
		names[name] = cty.StringVal(name)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"vocab": cty.ObjectVal(names)},
	}
}

func hclError(code, filename string, diags hcl.Diagnostics) *LoadError {
	le := &LoadError{Code: code, Message: diags.Error(), File: filename}
	for _, d := range diags {
		if d.Severity == hcl.DiagError && d.Subject != nil {
			le.Line = d.Subject.Start.Line
			break
		}
	}
	return le
}
