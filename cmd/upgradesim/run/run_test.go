package run

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(&out)
	Cmd.SetArgs(args)
	err := Cmd.Execute()
	return out.String(), err
}

func TestRun_Embedded(t *testing.T) {
	out, err := execute(t, "--parallel", "4", "--metrics")
	require.NoError(t, err)
	assert.Contains(t, out, "PASS upgrade-visible-after-warp")
	assert.NotContains(t, out, "FAIL")
	assert.Contains(t, out, "upgradesim_transactions_simulated_total")
}

func TestRun_FailingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: bad
steps:
  - set_non_upgradeable: {program: p, bytes: [1]}
  - simulate: {program: p, accounts: [p, p], expect_entrypoint: 2}
`), 0o644))

	out, err := execute(t, "--parallel", "1", "--metrics=false", path)
	assert.ErrorContains(t, err, "1 of 1 scenarios failed")
	assert.Contains(t, out, "FAIL bad")
	assert.Contains(t, out, "    | Program log: Hello World Rust program entrypoint 1")
}
