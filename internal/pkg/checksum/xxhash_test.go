package checksum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileChecksum(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(a, []byte("loan_id,amount\n1,2426\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("loan_id,amount\n1,2427\n"), 0o644))

	sumA, err := FileChecksum(a)
	require.NoError(t, err)
	again, err := FileChecksum(a)
	require.NoError(t, err)
	sumB, err := FileChecksum(b)
	require.NoError(t, err)

	assert.Len(t, sumA, 16)
	assert.Equal(t, sumA, again)
	assert.NotEqual(t, sumA, sumB)
}

func TestFileChecksum_MissingFile(t *testing.T) {
	_, err := FileChecksum(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
