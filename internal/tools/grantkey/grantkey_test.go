package grantkey

import (
	"bytes"
	"flag"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("grantkey", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.KeyBytes)
	require.Equal(t, 32, cfg.SecretBytes)
}

func TestParseConfigOverride(t *testing.T) {
	fs := flag.NewFlagSet("grantkey", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-key-bytes", "4", "-secret-bytes", "16"})
	require.NoError(t, err)
	require.Equal(t, 4, cfg.KeyBytes)
	require.Equal(t, 16, cfg.SecretBytes)
}

func TestRunRejectsInvalidBytes(t *testing.T) {
	err := Run(Config{KeyBytes: 0, SecretBytes: 32}, &bytes.Buffer{}, bytes.NewReader(nil))
	require.Error(t, err)
}

func TestRunNilOutput(t *testing.T) {
	err := Run(Config{KeyBytes: 4, SecretBytes: 4}, nil, nil)
	require.Error(t, err)
}

func TestRunWritesPair(t *testing.T) {
	buf := &bytes.Buffer{}
	reader := bytes.NewReader([]byte{0x01, 0x02, 0x03, 0x04, 0xaa, 0xbb, 0xcc, 0xdd})
	err := Run(Config{KeyBytes: 4, SecretBytes: 4}, buf, reader)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "WARMLINE_MEDIA_API_KEY=WL01020304", lines[0])
	require.Equal(t, "WARMLINE_MEDIA_API_SECRET=aabbccdd", lines[1])
}

func TestRunReaderExhausted(t *testing.T) {
	buf := &bytes.Buffer{}
	err := Run(Config{KeyBytes: 8, SecretBytes: 32}, buf, bytes.NewReader([]byte{0x01}))
	require.Error(t, err)
}
