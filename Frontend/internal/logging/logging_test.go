package logging

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("loud"))
}

func TestWriter(t *testing.T) {
	assert.Equal(t, os.Stdout, writer("json"))
	_, ok := writer("console").(zerolog.ConsoleWriter)
	assert.True(t, ok)
}

func TestSetupSetsGlobalLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	Setup("error", "json")
	assert.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())
}
