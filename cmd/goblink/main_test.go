package main

import (
	"bytes"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		want    Args
		wantErr error
	}{
		{
			name: "command after separator",
			argv: []string{"-c", "goblink.yaml", "--", "make", "-j4", "test"},
			want: Args{ConfigPath: "goblink.yaml", Command: []string{"make", "-j4", "test"}},
		},
		{
			name: "command without separator",
			argv: []string{"true"},
			want: Args{Command: []string{"true"}},
		},
		{
			name: "long config wins",
			argv: []string{"--config", "a.yaml", "-c", "b.yaml"},
			want: Args{ConfigPath: "a.yaml", Command: []string{}},
		},
		{
			name: "set colour",
			argv: []string{"-set", "orange", "-terminal"},
			want: Args{SetColor: "orange", Terminal: true, Command: []string{}},
		},
		{
			name: "version",
			argv: []string{"-v"},
			want: Args{ShowVersion: true, Command: []string{}},
		},
		{
			name:    "validate without config",
			argv:    []string{"-validate"},
			wantErr: errUsage,
		},
		{
			name:    "help",
			argv:    []string{"-h"},
			wantErr: flag.ErrHelp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseArgs(tt.argv, io.Discard)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "goblink.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const terminalConfig = `device:
  kind: terminal
transition:
  fade: 0s
  hold: 1ms
logging:
  output: discard
`

func TestRun_ExitCodes(t *testing.T) {
	path := writeConfig(t, terminalConfig)

	tests := []struct {
		name     string
		argv     []string
		wantCode int
	}{
		{name: "success", argv: []string{"-c", path, "--", "true"}, wantCode: 0},
		{name: "failure", argv: []string{"-c", path, "--", "sh", "-c", "exit 4"}, wantCode: 4},
		{name: "no command", argv: []string{"-c", path}, wantCode: 2},
		{name: "bad flag", argv: []string{"-nope"}, wantCode: 2},
		{name: "bad colour", argv: []string{"-c", path, "-set", "nope"}, wantCode: 2},
		{name: "set colour", argv: []string{"-c", path, "-set", "green"}, wantCode: 0},
		{name: "validate", argv: []string{"-c", path, "-validate"}, wantCode: 0},
		{name: "missing config", argv: []string{"-c", filepath.Join(t.TempDir(), "none.yaml"), "true"}, wantCode: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := run(tt.argv)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestShowVersion(t *testing.T) {
	var buf bytes.Buffer
	showVersion(&buf)
	assert.Contains(t, buf.String(), "goblink dev")
	assert.Contains(t, buf.String(), "Commit: unknown")
}
