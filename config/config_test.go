package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

// inputs creates the files a valid run needs and returns their settings.
func inputs(t *testing.T) map[string]interface{} {
	t.Helper()
	dir := t.TempDir()

	models := filepath.Join(dir, "models")
	require.NoError(t, os.Mkdir(models, 0755))

	settings := map[string]interface{}{
		"models": models,
		"output": filepath.Join(dir, "out"),
	}
	for _, f := range []string{"ncrna", "query", "reference"} {
		path := filepath.Join(dir, f+".fa")
		require.NoError(t, os.WriteFile(path, []byte(">x\nACGT\n"), 0644))
		settings[f] = path
	}
	return settings
}

func TestFromViper_defaults(t *testing.T) {
	c, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, runtime.NumCPU(), c.CPU)
	assert.Equal(t, 0.5, c.CMCutoff)
	assert.Equal(t, 0.7, c.MinLength)
	assert.True(t, c.Heuristic)
	assert.Equal(t, 0.5, c.HeurEvalue)
	assert.Equal(t, 0.5, c.HeurLength)
	assert.True(t, c.Cleanup)
	assert.Equal(t, 50, c.MaxHits)
	assert.False(t, c.Dust)
	assert.False(t, c.CheckCoorthologs)
	assert.Equal(t, 1000, c.CoorthologDistance)
	assert.Equal(t, "mafft", c.Aligner)
}

func TestFromViper_flags(t *testing.T) {
	fs := pflag.NewFlagSet("search", pflag.ContinueOnError)
	AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"-m", "models", "--cm-cutoff", "0.8", "--heuristic=false", "--maxcmhits", "0"}))

	v := viper.New()
	require.NoError(t, v.BindPFlags(fs))

	c, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "models", c.Models)
	assert.Equal(t, 0.8, c.CMCutoff)
	assert.False(t, c.Heuristic)
	assert.Equal(t, 0, c.MaxHits)
	assert.Equal(t, 0.7, c.MinLength, "unset flags keep their defaults")
}

func TestFromViper_settingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cpu: 1\ncoortholog-distance: 250\ndust: true\nqueryname: dmel\n"), 0644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	c, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 1, c.CPU)
	assert.Equal(t, 250, c.CoorthologDistance)
	assert.True(t, c.Dust)
	assert.Equal(t, "dmel", c.QueryName)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(map[string]interface{})
		errs   int
	}{
		{"valid", func(map[string]interface{}) {}, 0},
		{"missing query", func(s map[string]interface{}) { s["query"] = "/no/such/query.fa" }, 1},
		{"directory as ncrna", func(s map[string]interface{}) { s["ncrna"] = s["models"] }, 1},
		{"models is a file", func(s map[string]interface{}) { s["models"] = s["query"] }, 1},
		{"no output", func(s map[string]interface{}) { s["output"] = "" }, 1},
		{"too many cpus", func(s map[string]interface{}) { s["cpu"] = runtime.NumCPU() + 1 }, 1},
		{"no cpus", func(s map[string]interface{}) { s["cpu"] = 0 }, 1},
		{"negative ratios", func(s map[string]interface{}) { s["cm-cutoff"] = -0.1; s["minlength"] = -1 }, 2},
		{"zero evalue", func(s map[string]interface{}) { s["heur-blast-evalue"] = 0 }, 1},
		{"zero evalue without heuristic", func(s map[string]interface{}) { s["heur-blast-evalue"] = 0; s["heuristic"] = false }, 0},
		{"separator in queryname", func(s map[string]interface{}) { s["queryname"] = "d|mel" }, 1},
		{"negative limits", func(s map[string]interface{}) { s["maxcmhits"] = -1; s["coortholog-distance"] = -5 }, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := inputs(t)
			tt.modify(settings)

			v := viper.New()
			for k, val := range settings {
				v.Set(k, val)
			}
			c, err := FromViper(v)
			require.NoError(t, err)

			err = c.Validate()
			if tt.errs == 0 {
				assert.NoError(t, err)
				return
			}
			assert.Len(t, multierr.Errors(err), tt.errs)
		})
	}
}

func TestConfig_QueryLabel(t *testing.T) {
	tests := []struct {
		query, name, want string
	}{
		{"/data/dmel.fa", "", "dmel"},
		{"genomes/dmel.r6.fasta", "", "dmel.r6"},
		{"dmel", "", "dmel"},
		{"/data/dmel.fa", "fly", "fly"},
	}

	for _, tt := range tests {
		c := Config{Query: tt.query, QueryName: tt.name}
		if got := c.QueryLabel(); got != tt.want {
			t.Errorf("QueryLabel() = %s, want %s", got, tt.want)
		}
	}
}

func TestConfig_ValidateModels(t *testing.T) {
	settings := inputs(t)
	c := Config{Ncrna: settings["ncrna"].(string), Models: settings["models"].(string)}
	assert.NoError(t, c.ValidateModels(), "query and reference aren't needed")

	c = Config{}
	assert.Len(t, multierr.Errors(c.ValidateModels()), 2)
}
