package prompt

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		found bool
	}{
		{"y", "Y", true},
		{"N\n", "N", true},
		{"  yes please", "Y", true},
		{"nope, yes", "N", true},
		{"maybe", "Y", true},
		{"ok", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, found := Match(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.found, found, tt.in)
	}
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("y\nn\n"), &out, false)

	ok, err := p.Confirm("Save?")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Confirm("Plot?")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, "Save? [Y/N] Plot? [Y/N] ", out.String())
}

func TestConfirmAsksAgain(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("ok\n\n Y\n"), &out, false)

	ok, err := p.Confirm("Save?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, strings.Count(out.String(), retryMessage))
}

func TestConfirmLastLineWithoutNewline(t *testing.T) {
	p := New(strings.NewReader("n"), io.Discard, false)
	ok, err := p.Confirm("Save?")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConfirmEOF(t *testing.T) {
	p := New(strings.NewReader("ok\n"), io.Discard, false)
	_, err := p.Confirm("Save?")
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestConfirmAssumeYes(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader(""), &out, true)

	ok, err := p.Confirm("Save?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Save? [Y/N] Y\n", out.String())
}
