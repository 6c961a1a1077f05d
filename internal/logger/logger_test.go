package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	prod := New(true)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, prod.Core().Enabled(zapcore.InfoLevel))
	assert.Same(t, prod, zap.L())

	dev := New(false)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))
	assert.Same(t, dev, zap.L())
}
