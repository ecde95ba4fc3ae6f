package expire

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputAndDestroyToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dirty_tiles.list")

	e := newMercExpirer(t, 4)
	e.FromBboxWithoutBuffer(4, 4, 5, 5)
	require.NoError(t, e.OutputAndDestroyToFile(path, 3))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	assert.ElementsMatch(t, []string{
		"4/4/4", "4/4/5", "4/5/4", "4/5/5", "3/2/2",
	}, lines)

	// appends on a second run
	e.FromBboxWithoutBuffer(0, 0, 0, 0)
	require.NoError(t, e.OutputAndDestroyToFile(path, 4))
	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(content)), "\n"), 6)
}

func TestTileListFileOpenFailure(t *testing.T) {
	writer := NewTileListFile(filepath.Join(t.TempDir(), "missing", "dirty_tiles.list"))
	// writes become no-ops, nothing panics
	writer.EmitTile(1, 2, 3)
	assert.NoError(t, writer.Close())
}
