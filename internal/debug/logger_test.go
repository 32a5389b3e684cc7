package debug

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitWriter(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(true, &buf)
	defer InitWriter(false, &buf)

	assert.True(t, Enabled())
	With("model", "Post").Debug("resolved", "name", "title")
	assert.Contains(t, buf.String(), "msg=resolved")
	assert.Contains(t, buf.String(), "model=Post")

	buf.Reset()
	InitWriter(false, &buf)
	Debug("hidden")
	Error("hidden")
	assert.False(t, Enabled())
	assert.Empty(t, buf.String())
}

func TestWarnAndErrorNeedDebug(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(true, &buf)
	defer InitWriter(false, &buf)

	Warn("schema is invalid", "path", "schema.prisma")
	Error("watch failed")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "path=schema.prisma")
	assert.Contains(t, buf.String(), "level=ERROR")
}
