package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, time.Hour, cfg.EndingSoonWindow)
	require.Equal(t, 30*time.Second, cfg.HighestBidTTL)
	require.Empty(t, cfg.RedisAddr)

	inc, err := cfg.Increment()
	require.NoError(t, err)
	require.True(t, inc.Equal(decimal.RequireFromString("0.50")))
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("BIDDING_PORT", "9090")
	t.Setenv("BIDDING_BID_INCREMENT", "1.00")
	t.Setenv("BIDDING_ENDING_SOON_WINDOW", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, 30*time.Minute, cfg.EndingSoonWindow)

	inc, err := cfg.Increment()
	require.NoError(t, err)
	require.True(t, inc.Equal(decimal.RequireFromString("1.00")))
}

func TestLoad_RejectsBadIncrement(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "not_a_number", value: "abc"},
		{name: "zero", value: "0"},
		{name: "negative", value: "-0.50"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("BIDDING_BID_INCREMENT", tc.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}
