package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"--nodisplay", []string{"--nodisplay"}},
		{"  -a   -b\t-c ", []string{"-a", "-b", "-c"}},
		{`--name "two words"`, []string{"--name", "two words"}},
		{`'it''s' literal`, []string{"its", "literal"}},
		{`'a\b'`, []string{`a\b`}},
		{`"say \"hi\""`, []string{`say "hi"`}},
		{`one\ arg`, []string{"one arg"}},
		{`""`, []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := SplitArgs(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitArgs_Errors(t *testing.T) {
	_, err := SplitArgs(`"open`)
	assert.ErrorContains(t, err, "unterminated quote")

	_, err = SplitArgs(`trailing\`)
	assert.ErrorContains(t, err, "unfinished escape")
}

func TestParseArgs(t *testing.T) {
	got, err := ParseArgs("   ")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseArgs("-x 1")
	require.NoError(t, err)
	assert.Equal(t, []string{"-x", "1"}, got)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"qr", "ean13", "code128"}, SplitList(" qr, ean13;code128 "))
	assert.Equal(t, []string{"a", "b"}, SplitList("a\n\n b \n"))
	assert.Empty(t, SplitList(" , ; "))
}

func TestFlattenList(t *testing.T) {
	assert.Equal(t, []string{"qr", "ean13", "upca"}, FlattenList([]string{"qr", "ean13,upca", ""}))
	assert.Nil(t, FlattenList(nil))
}

func TestExpandAndCollapseHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, filepath.Join(home, "frames"), ExpandHome("~/frames"))
	assert.Equal(t, "~other/x", ExpandHome("~other/x"))

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, "/a/c", ExpandPath("/a/b/../c/"))
	assert.Equal(t, filepath.Join(home, "frames"), ExpandPath("~/frames/"))

	assert.Equal(t, "~", CollapseHome(home))
	assert.Equal(t, "~"+string(filepath.Separator)+"frames", CollapseHome(filepath.Join(home, "frames")))
	assert.Equal(t, "/elsewhere", CollapseHome("/elsewhere"))
}
