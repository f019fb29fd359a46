package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapLogger(t *testing.T) {
	t.Run("Happy path - level is parsed", func(t *testing.T) {
		BootstrapLogger("warn", FileConfig{})
		assert.Equal(t, logrus.WarnLevel, Log.Level)
	})

	t.Run("Unhappy path - unknown level falls back to debug", func(t *testing.T) {
		BootstrapLogger("chatty", FileConfig{})
		assert.Equal(t, logrus.DebugLevel, Log.Level)
	})

	t.Run("Happy path - file output is written", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rewards.log")
		BootstrapLogger("info", FileConfig{Path: path})
		Log.Info("DISTRIBUTION: hello")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "DISTRIBUTION: hello")
	})
}
