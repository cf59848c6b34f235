package flagx

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type simulateFlags struct {
	Calls    int           `flag:"calls,n" usage:"calls" default:"100"`
	Weight   int64         `flag:"weight" default:"20"`
	Blocking bool          `flag:"blocking"`
	Timeout  time.Duration `flag:"timeout" default:"5s"`
	Types    []string      `flag:"types" default:"l2Book,allMids"`
	Path     string        `flag:"path,p" required:"true"`
	NoFlag   string
}

func TestBindAndParse_Defaults(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	var f simulateFlags
	require.NoError(t, BindFlags(cmd, &f))
	require.NoError(t, cmd.ParseFlags([]string{"-p", "/info"}))
	require.NoError(t, ParseFlags(cmd, &f))

	assert.Equal(t, 100, f.Calls)
	assert.Equal(t, int64(20), f.Weight)
	assert.False(t, f.Blocking)
	assert.Equal(t, 5*time.Second, f.Timeout)
	assert.Equal(t, []string{"l2Book", "allMids"}, f.Types)
	assert.Equal(t, "/info", f.Path)
	assert.Empty(t, f.NoFlag)
}

func TestBindAndParse_Overrides(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	var f simulateFlags
	require.NoError(t, BindFlags(cmd, &f))
	require.NoError(t, cmd.ParseFlags([]string{
		"-n", "7", "--weight", "60", "--blocking", "--timeout", "250ms", "--types", "userRole", "--path", "/exchange",
	}))
	require.NoError(t, ParseFlags(cmd, &f))

	assert.Equal(t, 7, f.Calls)
	assert.Equal(t, int64(60), f.Weight)
	assert.True(t, f.Blocking)
	assert.Equal(t, 250*time.Millisecond, f.Timeout)
	assert.Equal(t, []string{"userRole"}, f.Types)
	assert.Equal(t, "/exchange", f.Path)
}

func TestBindFlags_Required(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	var f simulateFlags
	require.NoError(t, BindFlags(cmd, &f))

	ann := cmd.Flags().Lookup("path").Annotations
	assert.Equal(t, []string{"true"}, ann[cobra.BashCompOneRequiredFlag])
}

func TestBindFlags_Errors(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}

	assert.Error(t, BindFlags(cmd, simulateFlags{}))
	assert.Error(t, ParseFlags(cmd, nil))

	type badDefault struct {
		N int `flag:"n" default:"x"`
	}
	assert.Error(t, BindFlags(cmd, &badDefault{}))

	type unsupported struct {
		F float32 `flag:"f"`
	}
	assert.Error(t, BindFlags(&cobra.Command{Use: "u"}, &unsupported{}))
}
