package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazyvibe/codescan/internal/model"
)

func TestRegistry_BuiltinDevices(t *testing.T) {
	r := NewRegistry()

	names := make([]string, 0)
	for _, d := range r.List() {
		names = append(names, d.Name())
	}
	assert.Equal(t, []string{"spool", "zbar"}, names)

	_, ok := r.Get("zbar")
	assert.True(t, ok)
	_, ok = r.Get("webcam")
	assert.False(t, ok)
}

func TestRegistry_Resolve(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistryWithConfig(Config{SpoolDir: dir})

	t.Run("usable device", func(t *testing.T) {
		d, err := r.Resolve("spool", model.FacingBack)
		require.NoError(t, err)
		assert.Equal(t, "spool", d.Name())
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := r.Resolve("webcam", model.FacingBack)
		assert.ErrorIs(t, err, ErrNoDevice)
	})

	t.Run("wrong facing", func(t *testing.T) {
		_, err := r.Resolve("spool", model.FacingFront)
		assert.ErrorIs(t, err, ErrNoDevice)
	})

	t.Run("unavailable", func(t *testing.T) {
		r := NewRegistryWithConfig(Config{SpoolDir: filepath.Join(dir, "missing")})
		_, err := r.Resolve("spool", model.FacingBack)
		assert.ErrorIs(t, err, ErrNoDevice)
	})
}

func TestSpoolDevice_Available(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	assert.NoError(t, NewSpoolDevice(dir).Available())
	assert.Error(t, NewSpoolDevice("").Available())
	assert.Error(t, NewSpoolDevice(file).Available())
	assert.Error(t, NewSpoolDevice(filepath.Join(dir, "nope")).Available())
}

func TestLookExecutable(t *testing.T) {
	dir := t.TempDir()

	_, err := lookExecutable("")
	assert.Error(t, err)

	_, err = lookExecutable("codescan-definitely-not-installed")
	assert.ErrorContains(t, err, "not found in PATH")

	_, err = lookExecutable(filepath.Join(dir, "missing"))
	assert.ErrorContains(t, err, "not found")

	_, err = lookExecutable(dir)
	assert.ErrorContains(t, err, "is a directory")
}
