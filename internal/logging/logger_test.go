package logging

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(false, true, &buf)

	logger.Info("resolved %d secrets", 3)
	logger.Warn("connector '%s' slow", "vault")
	logger.Error("fetch failed")
	logger.Debug("should not appear")

	out := buf.String()
	assert.Contains(t, out, "✓ resolved 3 secrets")
	assert.Contains(t, out, "⚠ connector 'vault' slow")
	assert.Contains(t, out, "✗ fetch failed")
	assert.NotContains(t, out, "should not appear")
}

func TestLoggerDebugEnabled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(true, true, &buf)

	logger.Debug("fetching %s", "API_CREDENTIALS/username")
	assert.Contains(t, buf.String(), "[DEBUG] fetching API_CREDENTIALS/username")
}

func TestSecretAlwaysRedacted(t *testing.T) {
	t.Parallel()

	s := Secret("hunter2")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", s))
}

func TestRedact(t *testing.T) {
	t.Parallel()

	out := Redact("password is hunter22 ok", []string{"hunter22", ""})
	assert.Equal(t, "password is [REDACTED] ok", out)

	// Short values are left alone to avoid shredding ordinary text.
	out = Redact("a is a", []string{"a"})
	assert.Equal(t, "a is a", out)
}
