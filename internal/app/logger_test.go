package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strivetech/saiplatform/pkg/logger"
)

func TestConfigureLogging(t *testing.T) {
	restore := logger.Replace(logger.Logger())
	t.Cleanup(restore)

	require.NoError(t, ConfigureLogging(ServerConfig{LogLevel: "debug", LogEncoding: "console"}))
	require.NoError(t, ConfigureLogging(ServerConfig{}))
}
