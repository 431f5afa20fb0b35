package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"holoprofile/internal/tester"
)

func TestNewLevels(t *testing.T) {
	l, err := New("", false)
	tester.NoErr(t, err)
	tester.True(t, l.Core().Enabled(zapcore.InfoLevel))
	tester.False(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New("DEBUG", true)
	tester.NoErr(t, err)
	tester.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = New("loud", false)
	tester.True(t, err != nil)
}

func TestOrNop(t *testing.T) {
	tester.True(t, OrNop(nil) != nil)
}
