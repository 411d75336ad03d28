package buildinfo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	p := Get()
	assert.Equal(t, "dev", p.Version)
	assert.Equal(t, "unknown", p.GitCommit)
	assert.Equal(t, "dev (commit unknown, built unknown)", p.String())
}

func TestProperties_JSON(t *testing.T) {
	b, err := json.Marshal(Properties{Version: "v1.2.0", BuildTime: "2026-01-01T00:00:00Z", GitCommit: "abc123"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"v1.2.0","build_time":"2026-01-01T00:00:00Z","git_commit":"abc123"}`, string(b))
}
