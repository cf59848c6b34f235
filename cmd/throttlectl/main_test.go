package main

import (
	"bytes"
	"testing"

	"github.com/KOMKZ/go-yogan-throttle/provider/hyperliquid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config-path", "testdata", "--env", "test", "--env-prefix", ""}, args...))
	require.NoError(t, cmd.Execute(), out.String())
	return out.String()
}

func TestProvidersCmd(t *testing.T) {
	out := run(t, "providers")
	assert.Equal(t, "bitget\nhuobi\nhyperliquid\n", out)
}

func TestBucketsCmd(t *testing.T) {
	out := run(t, "buckets")
	assert.Contains(t, out, "hyperliquid")
	assert.Contains(t, out, hyperliquid.BucketID)
	assert.Contains(t, out, "1200")
}

func TestHealthCmd(t *testing.T) {
	out := run(t, "health")
	assert.Regexp(t, `STATUS\s+healthy\n`, out)
	assert.Contains(t, out, "throttle.hyperliquid")
}

func TestEstimateCmd_Candle(t *testing.T) {
	out := run(t, "estimate", "-t", "candleSnapshot", "--interval", "1m", "--span", "10000m")
	assert.Regexp(t, `EXTRA\s+84\n`, out)
	assert.Regexp(t, `TOTAL\s+104\n`, out)
	assert.Contains(t, out, hyperliquid.BucketID)
}

func TestEstimateCmd_HuobiPrivate(t *testing.T) {
	out := run(t, "estimate", "--provider", "huobi", "--method", "POST", "--path", "/v1/order/orders/place", "--access-key", "ak")
	assert.Regexp(t, `KIND\s+private\n`, out)
	assert.Contains(t, out, "HUOBI_PRIVATE_TRADE_UID_3S_ALL:ak")
}

func TestSimulateCmd(t *testing.T) {
	out := run(t, "simulate", "-n", "30", "-c", "5", "-t", "userRole")
	assert.Regexp(t, `ADMITTED\s+20\n`, out)
	assert.Regexp(t, `REJECTED\s+10\n`, out)
	assert.Regexp(t, `SENT\s+20\n`, out)
}

func TestEstimateCmd_UnknownProvider(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"estimate", "--provider", "nope"})
	assert.Error(t, cmd.Execute())
}

func TestMustBindFlags_PanicsOnUnsupportedField(t *testing.T) {
	type ratioFlags struct {
		Ratio float64 `flag:"ratio"`
	}
	cmd := &cobra.Command{Use: "ratio"}
	assert.Panics(t, func() { mustBindFlags(cmd, &ratioFlags{}) })
	assert.NotPanics(t, func() { mustBindFlags(&cobra.Command{Use: "ok"}, &simulateFlags{}) })
}
