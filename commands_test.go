package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDescribeCommand(t *testing.T) {
	t.Setenv("LOG_LEVEL", "ERROR")
	path := filepath.Join(t.TempDir(), "data.json")
	doc := `{"type":"INTERVALS","data":[{"start":0,"end":2,"frequency":1},{"start":2,"end":4,"frequency":3}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	out, err := runRoot(t, "describe", path)
	require.NoError(t, err)

	var report struct {
		Type            string `json:"type"`
		Characteristics struct {
			Mean float64 `json:"mean"`
		} `json:"numerical_characteristics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "INTERVALS", report.Type)
	assert.InDelta(t, 2.5, report.Characteristics.Mean, 1e-9)
}

func TestDescribeCommandArgs(t *testing.T) {
	_, err := runRoot(t, "describe")
	assert.Error(t, err)
	_, err = runRoot(t, "describe", "a.json", "b.json")
	assert.Error(t, err)
}

func TestProcessCommandRejectsBadIDBeforeConnecting(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://nobody@127.0.0.1:1/none?sslmode=disable")

	_, err := runRoot(t, "process", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid dataset id "not-a-uuid"`)

	_, err = runRoot(t, "process")
	assert.Error(t, err)
}

func TestMigrateIsPersistent(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"describe", "process", "serve", "work"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
		assert.NotNil(t, sub.InheritedFlags().Lookup("migrate"), name)
	}
}
