package previous

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	idx, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	_, ok := idx.Lookup("User", []string{"id"})
	assert.False(t, ok)
}

func TestLoadAndLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "previous.json")
	content := `[{"moniker":"Message","columns":["sender_id"],"name":"sender"}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	idx, err := Load(path)
	require.NoError(t, err)

	name, ok := idx.Lookup("Message", []string{"sender_id"})
	require.True(t, ok)
	assert.Equal(t, "sender", name)

	_, ok = idx.Lookup("Message", []string{"recipient_id"})
	assert.False(t, ok)
}

func TestLookupColumnOrderInsensitive(t *testing.T) {
	idx := Empty()
	idx.byKey[key("OrderLine", []string{"order_id", "line_no"})] = "order"

	name, ok := idx.Lookup("OrderLine", []string{"line_no", "order_id"})
	require.True(t, ok)
	assert.Equal(t, "order", name)
}
