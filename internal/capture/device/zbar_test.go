//go:build unix

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

// fakeZbar writes an executable shell script standing in for zbarcam and a
// placeholder video node.
func fakeZbar(t *testing.T, script string) (bin, video string) {
	t.Helper()
	dir := t.TempDir()
	bin = filepath.Join(dir, "zbarcam")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"+script), 0o755))
	video = filepath.Join(dir, "video0")
	require.NoError(t, os.WriteFile(video, nil, 0o644))
	return bin, video
}

func TestZbarDevice_Args(t *testing.T) {
	d := NewZbarDevice("", "/dev/video2", "--prescale=640x480")

	got := d.Args(model.NewSymbologySet(model.SymbologyQR, model.SymbologyEAN13))
	assert.Equal(t, []string{
		"--nodisplay",
		"--xml",
		"-Sdisable",
		"-Sean13.enable",
		"-Sqrcode.enable",
		"--prescale=640x480",
		"/dev/video2",
	}, got)

	assert.Equal(t, []string{"--nodisplay", "--xml"}, NewZbarDevice("", "").Args(nil))
}

func TestZbarDevice_Available(t *testing.T) {
	bin, video := fakeZbar(t, "exit 0\n")

	assert.NoError(t, NewZbarDevice(bin, video).Available())
	assert.Error(t, NewZbarDevice(bin, "").Available())
	assert.Error(t, NewZbarDevice(bin, video+"-missing").Available())

	plain := filepath.Join(t.TempDir(), "zbarcam")
	require.NoError(t, os.WriteFile(plain, nil, 0o644))
	assert.ErrorIs(t, NewZbarDevice(plain, video).Available(), errNotExecutable)
}

const zbarXMLScript = `cat <<'EOF'
<barcodes xmlns='http://zbar.sourceforge.net/2008/barcode'>
<source device='/dev/video0'>
<index num='0'>
<symbol type='QR-Code' quality='1' orientation='UP'><data><![CDATA[https://example.com/activate]]></data></symbol>
</index>
<index num='1'>
<symbol type='AZTEC' quality='1'><data><![CDATA[not a code]]></data></symbol>
</index>
<index num='2'>
<symbol type='QR-Code' quality='1' orientation='UP'><data><![CDATA[WIFI:S:home;
P:secret;;]]></data></symbol>
</index>
EOF
exec sleep 10
`

func TestZbarDevice_StreamsDecodedFrames(t *testing.T) {
	bin, video := fakeZbar(t, zbarXMLScript)
	d := NewZbarDevice(bin, video)
	d.SetStartupGrace(200 * time.Millisecond)

	stream, err := d.Open(context.Background(), model.NewSymbologySet(model.SymbologyQR))
	require.NoError(t, err)
	defer stream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	frame, err := stream.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), frame.Seq)
	assert.Equal(t, []model.Detection{
		{Symbology: model.SymbologyQR, Payload: "https://example.com/activate"},
	}, frame.Symbols)

	frame, err = stream.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), frame.Seq)
	assert.Empty(t, frame.Symbols)

	frame, err = stream.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), frame.Seq)
	assert.Equal(t, []model.Detection{
		{Symbology: model.SymbologyQR, Payload: "WIFI:S:home;\nP:secret;;"},
	}, frame.Symbols)

	assert.NoError(t, stream.Close())
	assert.NoError(t, stream.Close())
}

func TestZbarDevice_StartupFailure(t *testing.T) {
	bin, video := fakeZbar(t, "echo 'device busy'\nexit 1\n")
	d := NewZbarDevice(bin, video)
	d.SetStartupGrace(time.Second)

	_, err := d.Open(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited during startup")
	assert.Contains(t, err.Error(), "device busy")
}
