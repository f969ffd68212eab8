package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const document = `
node "value" "A" {
  value = 2
}

node "cell" "B" {
  y = A * 3
  z = y / 0
}
`

func writeDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Execute(args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func requireExitCode(t *testing.T, err error, code int) *ExitError {
	t.Helper()
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, code, exitErr.Code)
	return exitErr
}

func TestEval_Refs(t *testing.T) {
	t.Parallel()
	out, _, err := execute(t, "eval", "--format", "json", writeDocument(t), "B.y")
	require.NoError(t, err)
	assert.Contains(t, out, `"ref": "B.y"`)
	assert.Contains(t, out, `"value": 6`)
}

func TestEval_AllFieldsReportsFailures(t *testing.T) {
	t.Parallel()
	out, _, err := execute(t, "eval", writeDocument(t))
	exitErr := requireExitCode(t, err, 1)
	assert.Equal(t, "1 of 3 datums failed", exitErr.Message)

	assert.Contains(t, out, "A.value")
	assert.Contains(t, out, "B.y")
	assert.Contains(t, out, "division by zero")
}

func TestCommands_UsageErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "eval without file", args: []string{"eval"}, wantErr: "requires at least 1 arg"},
		{name: "bad format", args: []string{"eval", "-f", "xml", "doc.hcl"}, wantErr: "unknown output format"},
		{name: "bad reference", args: []string{"eval", "doc.hcl", "B"}, wantErr: "node.field"},
		{name: "bad log level", args: []string{"eval", "--log-level", "loud", "doc.hcl"}, wantErr: "invalid log level"},
		{name: "unknown flag", args: []string{"eval", "--frobnicate", "doc.hcl"}, wantErr: "unknown flag"},
		{name: "deps arity", args: []string{"deps", "doc.hcl"}, wantErr: "accepts 2 arg(s)"},
		{name: "types arity", args: []string{"types", "a", "b"}, wantErr: "accepts at most 1 arg(s)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := execute(t, tc.args...)
			exitErr := requireExitCode(t, err, 2)
			assert.Contains(t, exitErr.Message, tc.wantErr)
		})
	}
}

func TestEval_MissingDocument(t *testing.T) {
	t.Parallel()
	_, _, err := execute(t, "eval", filepath.Join(t.TempDir(), "absent.hcl"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load document")
}

func TestDeps(t *testing.T) {
	t.Parallel()
	path := writeDocument(t)

	out, _, err := execute(t, "deps", path, "B.y")
	require.NoError(t, err)
	assert.Contains(t, out, "B.y")
	assert.Contains(t, out, "A.value")

	out, _, err = execute(t, "deps", "--reverse", path, "A.value")
	require.NoError(t, err)
	assert.Contains(t, out, "B.y")
	assert.Contains(t, out, "B.z")

	_, _, err = execute(t, "deps", path, "C.y")
	assert.ErrorContains(t, err, "C")
}

func TestTypes(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "types")
	require.NoError(t, err)
	for _, name := range []string{"value", "cell", "box", "get_bounds", "set_bounds"} {
		assert.Contains(t, out, name)
	}

	out, _, err = execute(t, "types", "set_bounds")
	require.NoError(t, err)
	assert.Contains(t, out, "xmin, ymin")

	_, _, err = execute(t, "types", "boxx")
	assert.ErrorContains(t, err, `did you mean "box"`)
}

func TestEnvironmentOverridesUnsetFlags(t *testing.T) {
	t.Setenv("DATUMGRAPH_LOG_LEVEL", "loud")

	_, _, err := execute(t, "eval", writeDocument(t))
	exitErr := requireExitCode(t, err, 2)
	assert.Contains(t, exitErr.Message, "invalid log level")

	// An explicit flag wins over the environment.
	_, _, err = execute(t, "eval", "--log-level", "error", writeDocument(t), "B.y")
	assert.NoError(t, err)
}
