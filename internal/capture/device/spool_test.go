package device

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazyvibe/codescan/internal/model"
)

// drop writes content to a hidden temp file and renames it into dir.
func drop(t *testing.T, dir, name, content string) {
	t.Helper()
	tmp := filepath.Join(dir, "."+name)
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))
	require.NoError(t, os.Rename(tmp, filepath.Join(dir, name)))
}

func TestSpoolStream(t *testing.T) {
	dir := t.TempDir()
	d := NewSpoolDevice(dir)

	stream, err := d.Open(context.Background(), nil)
	require.NoError(t, err)
	defer stream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	drop(t, dir, "frame-1", "qr:https://example.com/activate\nEAN-13:4006381333931\n")
	frame, err := stream.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), frame.Seq)
	assert.Equal(t, []model.Detection{
		{Symbology: model.SymbologyQR, Payload: "https://example.com/activate"},
		{Symbology: model.SymbologyEAN13, Payload: "4006381333931"},
	}, frame.Symbols)

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "frame-1"))
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond, "consumed frames are removed")

	drop(t, dir, "frame-2", "")
	frame, err = stream.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), frame.Seq)
	assert.Empty(t, frame.Symbols)
}

func TestSpoolStream_ContextCancel(t *testing.T) {
	stream, err := NewSpoolDevice(t.TempDir()).Open(context.Background(), nil)
	require.NoError(t, err)
	defer stream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = stream.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSpoolStream_CloseEndsStream(t *testing.T) {
	stream, err := NewSpoolDevice(t.TempDir()).Open(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, stream.Close())
	assert.NoError(t, stream.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = stream.Next(ctx)
	assert.Error(t, err)
}
