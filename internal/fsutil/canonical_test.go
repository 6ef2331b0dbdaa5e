package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamePath(t *testing.T) {
	tmpDir := t.TempDir()
	realDir := filepath.Join(tmpDir, "survey")
	require.NoError(t, os.MkdirAll(realDir, 0755))
	link := filepath.Join(tmpDir, "latest")
	require.NoError(t, os.Symlink(realDir, link))
	require.NoError(t, os.WriteFile(filepath.Join(realDir, "line1.txt"), []byte("x"), 0644))

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", filepath.Join(realDir, "line1.txt"), filepath.Join(realDir, "line1.txt"), true},
		{"dot segments", filepath.Join(realDir, "line1.txt"), realDir + "/../survey/./line1.txt", true},
		{"through symlink", filepath.Join(realDir, "line1.txt"), filepath.Join(link, "line1.txt"), true},
		{"missing file through symlink", filepath.Join(realDir, "out.txt"), filepath.Join(link, "out.txt"), true},
		{"missing parent dirs", filepath.Join(tmpDir, "a", "b", "c.txt"), filepath.Join(tmpDir, "a", "b", "c.txt"), true},
		{"different files", filepath.Join(realDir, "line1.txt"), filepath.Join(realDir, "line1_out.txt"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SamePath(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalPath_Relative(t *testing.T) {
	got, err := CanonicalPath("does-not-exist/out.txt")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "out.txt", filepath.Base(got))
}
