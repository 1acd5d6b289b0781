package program

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFormatsAgree(t *testing.T) {
	want, err := Load("testdata/fib.yaml")
	require.NoError(t, err)
	require.Len(t, want.Operators, 3)

	for _, file := range []string{"testdata/fib.cue", "testdata/fib.hcl"} {
		t.Run(filepath.Ext(file), func(t *testing.T) {
			got, err := Load(file)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("definition mismatch (-yaml +%s):\n%s", filepath.Ext(file), diff)
			}

			h1, err := Hash(want)
			require.NoError(t, err)
			h2, err := Hash(got)
			require.NoError(t, err)
			assert.Equal(t, h1, h2)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	tests := []struct {
		name string
		path string
		code string
	}{
		{"missing file", filepath.Join(dir, "absent.yaml"), ErrCodeNotFound},
		{"unknown extension", write("prog.toml", "entry = 1"), ErrCodeUnsupported},
		{"yaml unknown field", write("a.yaml", "entry: Fib\nbogus: 1\n"), ErrCodeDecode},
		{"yaml syntax", write("b.yaml", "entry: [\n"), ErrCodeSyntax},
		{"cue syntax", write("c.cue", "entry: {\n"), ErrCodeSyntax},
		{"cue not concrete", write("d.cue", "entry: string\n"), ErrCodeDecode},
		{"hcl syntax", write("e.hcl", "operator {\n"), ErrCodeSyntax},
		{"hcl unknown vocab", write("f.hcl", "entry = vocab.Nope\n"), ErrCodeDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			require.Error(t, err)
			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.code, le.Code, le.Error())
		})
	}
}

func TestLoadHCLVocabulary(t *testing.T) {
	def, err := LoadHCL("inline.hcl", []byte(`
entry = vocab.Addition
input "Input" {
  constant = vocab.Natural32
}
input "OtherInput" {
  constant = "u32:3"
}
`))
	require.NoError(t, err)
	assert.Equal(t, "Addition", def.Entry)
	assert.Equal(t, []Binding{
		{Tag: "Input", Constant: "Natural32"},
		{Tag: "OtherInput", Constant: "u32:3"},
	}, def.Inputs)
}

func TestHashDistinguishesDefinitions(t *testing.T) {
	a, err := Load("testdata/add.yaml")
	require.NoError(t, err)
	b := *a
	b.Inputs = []Binding{{Tag: "Input", Constant: "Natural32"}, {Tag: "OtherInput", Constant: "u32:4"}}

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(&b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb)
	assert.Len(t, ha, 64)
}
