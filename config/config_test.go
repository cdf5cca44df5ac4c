// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cathedral-fabric/cathedral/config"
)

func TestDefaultConfigValid(t *testing.T) {
	require.NoError(t, config.DefaultConfig().Valid())
}

func TestProductionConfigValid(t *testing.T) {
	require.NoError(t, config.ProductionConfig("/var/lib/cathedral", ":9090").Valid())
}

func TestCIConfigValid(t *testing.T) {
	require.NoError(t, config.CIConfig().Valid())
}

func TestInvalidStorePersistWithoutDir(t *testing.T) {
	c := config.DefaultConfig()
	c.StorePersist = true
	c.StoreDir = ""
	require.ErrorIs(t, c.Valid(), config.ErrInvalidStoreDir)
}

func TestInvalidLogLevel(t *testing.T) {
	c := config.DefaultConfig()
	c.LogLevel = "trace"
	require.ErrorIs(t, c.Valid(), config.ErrInvalidLogLevel)
}

func TestMetricsEnabledRequiresAddr(t *testing.T) {
	c := config.DefaultConfig()
	c.MetricsEnabled = true
	c.MetricsAddr = ""
	require.ErrorIs(t, c.Valid(), config.ErrMetricsAddrRequired)
}
