package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSymbology(t *testing.T) {
	tests := []struct {
		in   string
		want Symbology
		ok   bool
	}{
		{"qr", SymbologyQR, true},
		{"QR-Code", SymbologyQR, true},
		{" qrcode ", SymbologyQR, true},
		{"EAN-13", SymbologyEAN13, true},
		{"ean_8", SymbologyEAN8, true},
		{"UPC-A", SymbologyUPCA, true},
		{"CODE-128", SymbologyCode128, true},
		{"I2/5", SymbologyI25, true},
		{"DataBar-Exp", "", false},
		{"DATABAR-EXPANDED", SymbologyDataBar, true},
		{"PDF417", SymbologyPDF417, true},
		{"aztec", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseSymbology(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSymbologySet(t *testing.T) {
	set := NewSymbologySet(SymbologyQR, SymbologyCode128, SymbologyQR)
	assert.True(t, set.Contains(SymbologyQR))
	assert.False(t, set.Contains(SymbologyEAN13))
	assert.Equal(t, []Symbology{SymbologyCode128, SymbologyQR}, set.Slice())

	var empty SymbologySet
	assert.False(t, empty.Contains(SymbologyQR))
	assert.Empty(t, empty.Slice())
}

func TestScanningState(t *testing.T) {
	var zero ScanningState
	assert.Equal(t, Undetermined(), zero)

	assert.False(t, Undetermined().IsTerminal())
	assert.False(t, Scanning().IsTerminal())
	assert.False(t, UnknownCode().IsTerminal())
	assert.True(t, ScannedCode("x").IsTerminal())
	assert.True(t, ErrorState("no camera device").IsTerminal())

	assert.Equal(t, "scanning", Scanning().String())
	assert.Equal(t, `scanned_code("https://example.com")`, ScannedCode("https://example.com").String())
	assert.Equal(t, `error("no camera device")`, ErrorState("no camera device").String())
	assert.Equal(t, "unknown_code", StateUnknownCode.String())
}

func TestPermissionStatus_Decided(t *testing.T) {
	assert.False(t, PermissionUndetermined.Decided())
	assert.True(t, PermissionGranted.Decided())
	assert.True(t, PermissionDenied.Decided())
}
