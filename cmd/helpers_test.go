package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGraphFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	content := `{"nodes": ["x", "y"], "edges": [["x", "y"]]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	payload, err := loadGraphFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, payload.Nodes)
	assert.Equal(t, [][2]string{{"x", "y"}}, payload.Edges)
}

func TestLoadGraphFile_Missing(t *testing.T) {
	_, err := loadGraphFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestLoadGraphFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte("nodes: x"), 0o644))

	_, err := loadGraphFile(path)
	require.Error(t, err)
}
