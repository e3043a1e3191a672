package utils

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInitLoggerLevels(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	InitLogger("debug", "json")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	InitLogger("WARN", "console")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	InitLogger("chatty", "json")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	InitLogger("", "json")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
