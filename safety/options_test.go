package safety

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safety.yaml")
	content := `keywords:
  english:
    - "code red"
responses:
  en: "Call the new hotline."
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"code red"}, cfg.Keywords["english"])
	assert.Equal(t, "Call the new hotline.", cfg.Responses["en"])

	detector := NewDetector(
		WithKeywords(cfg.Keywords),
		WithResponses(cfg.Responses),
	)
	assert.True(t, detector.Detect("this is a CODE RED"))
	assert.Equal(t, "Call the new hotline.", detector.Respond("en"))
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keywords: [not: a: map"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
