// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// Config is the settings of a run. It's a mix of the command line flags and
// those in an optional settings file
type Config struct {
	// directory of covariance models, one <mirna>.cm per miRNA
	Models string `mapstructure:"models"`

	// miRNA metadata file
	Ncrna string `mapstructure:"ncrna"`

	// output directory
	Output string `mapstructure:"output"`

	// query genome FASTA
	Query string `mapstructure:"query"`

	// reference genome FASTA
	Reference string `mapstructure:"reference"`

	// name of the query species, from the query's file name if empty
	QueryName string `mapstructure:"queryname"`

	// number of threads the external searches may use
	CPU int `mapstructure:"cpu"`

	// minimum candidate score as a share of the reference bit score
	CMCutoff float64 `mapstructure:"cm-cutoff"`

	// minimum candidate length as a share of the precursor
	MinLength float64 `mapstructure:"minlength"`

	// heuristic blastn pre-filter of the query genome
	Heuristic bool `mapstructure:"heuristic"`

	// e-value cutoff of the pre-filter
	HeurEvalue float64 `mapstructure:"heur-blast-evalue"`

	// minimum pre-filter alignment length as a share of the precursor
	HeurLength float64 `mapstructure:"heur-blast-length"`

	// remove temporary files
	Cleanup bool `mapstructure:"cleanup"`

	// existing BLAST db of the reference genome
	RefBlast string `mapstructure:"refblast"`

	// existing BLAST db of the query genome
	QueryBlast string `mapstructure:"queryblast"`

	// maximum candidates checked per miRNA, 0 for no limit
	MaxHits int `mapstructure:"maxcmhits"`

	// low complexity filtering in the reverse search
	Dust bool `mapstructure:"dust"`

	// accept candidates whose best reverse hit is a co-ortholog of the
	// reference miRNA
	CheckCoorthologs bool `mapstructure:"check-coorthologs-ref"`

	// distance (bp) under which co-orthologs are treated as the same locus
	CoorthologDistance int `mapstructure:"coortholog-distance"`

	// external programs
	Cmsearch    string `mapstructure:"cmsearch"`
	Blastn      string `mapstructure:"blastn"`
	Makeblastdb string `mapstructure:"makeblastdb"`
	Aligner     string `mapstructure:"aligner"`
}

// defaults of the optional settings
var defaults = map[string]interface{}{
	"cpu":                   runtime.NumCPU(),
	"cm-cutoff":             0.5,
	"minlength":             0.7,
	"heuristic":             true,
	"heur-blast-evalue":     0.5,
	"heur-blast-length":     0.5,
	"cleanup":               true,
	"maxcmhits":             50,
	"dust":                  false,
	"check-coorthologs-ref": false,
	"coortholog-distance":   1000,
	"cmsearch":              "cmsearch",
	"blastn":                "blastn",
	"makeblastdb":           "makeblastdb",
	"aligner":               "mafft",
}

// SetDefaults registers the defaults of the optional settings with v.
func SetDefaults(v *viper.Viper) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// AddFlags adds every setting as a flag. Those without a short form are the
// tuning knobs.
func AddFlags(fs *pflag.FlagSet) {
	fs.StringP("models", "m", "", "directory of covariance models (.cm)")
	fs.StringP("ncrna", "n", "", "tab separated miRNA data file")
	fs.StringP("output", "o", "", "output directory")
	fs.StringP("query", "q", "", "query genome FASTA")
	fs.StringP("reference", "r", "", "reference genome FASTA")
	fs.String("queryname", "", "name of the query species (default: query file name)")
	fs.IntP("cpu", "c", runtime.NumCPU(), "number of threads")
	fs.Float64("cm-cutoff", 0.5, "minimum candidate bit score as a share of the reference bit score")
	fs.Float64("minlength", 0.7, "minimum candidate length as a share of the precursor")
	fs.Bool("heuristic", true, "narrow the covariance model search with a blastn pre-filter")
	fs.Float64("heur-blast-evalue", 0.5, "e-value cutoff of the pre-filter")
	fs.Float64("heur-blast-length", 0.5, "minimum pre-filter hit length as a share of the precursor")
	fs.Bool("cleanup", true, "remove temporary files")
	fs.String("refblast", "", "BLAST db of the reference genome")
	fs.String("queryblast", "", "BLAST db of the query genome")
	fs.Int("maxcmhits", 50, "maximum candidates checked per miRNA, 0 for no limit")
	fs.Bool("dust", false, "filter low complexity regions in the reverse search")
	fs.Bool("check-coorthologs-ref", false, "accept candidates that are co-orthologs of the reference miRNA")
	fs.Int("coortholog-distance", 1000, "bp under which co-orthologs are the same locus")
	fs.String("cmsearch", "cmsearch", "cmsearch executable")
	fs.String("blastn", "blastn", "blastn executable")
	fs.String("makeblastdb", "makeblastdb", "makeblastdb executable")
	fs.String("aligner", "mafft", "mafft executable")
}

// New returns a Config populated by the global Viper settings (either
// from a settings file and/or command line arguments)
func New() (*Config, error) {
	return FromViper(viper.GetViper())
}

// FromViper decodes the settings of v to a Config.
func FromViper(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode settings: %w", err)
	}
	return &c, nil
}

// Validate checks the inputs exist and the settings are in range. Every
// problem found is returned.
func (c *Config) Validate() error {
	err := c.ValidateModels()
	err = multierr.Append(err, isFile("query", c.Query))
	err = multierr.Append(err, isFile("reference", c.Reference))

	if c.Output == "" {
		err = multierr.Append(err, fmt.Errorf("output: required"))
	}

	if c.CPU < 1 || c.CPU > runtime.NumCPU() {
		err = multierr.Append(err, fmt.Errorf("cpu: %d is outside 1-%d, the available CPUs", c.CPU, runtime.NumCPU()))
	}

	ratios := []struct {
		flag string
		val  float64
	}{
		{"cm-cutoff", c.CMCutoff},
		{"minlength", c.MinLength},
		{"heur-blast-length", c.HeurLength},
	}
	for _, r := range ratios {
		if r.val < 0 {
			err = multierr.Append(err, fmt.Errorf("%s: %g is negative", r.flag, r.val))
		}
	}
	if c.Heuristic && c.HeurEvalue <= 0 {
		err = multierr.Append(err, fmt.Errorf("heur-blast-evalue: %g isn't positive", c.HeurEvalue))
	}

	// the query name is a field of the '|' separated output headers
	if strings.Contains(c.QueryLabel(), "|") {
		err = multierr.Append(err, fmt.Errorf("queryname: %q can't contain '|'", c.QueryLabel()))
	}

	if c.MaxHits < 0 {
		err = multierr.Append(err, fmt.Errorf("maxcmhits: %d is negative", c.MaxHits))
	}
	if c.CoorthologDistance < 0 {
		err = multierr.Append(err, fmt.Errorf("coortholog-distance: %d is negative", c.CoorthologDistance))
	}

	return err
}

// ValidateModels checks the miRNA file and the model directory, the only
// inputs of a calibration.
func (c *Config) ValidateModels() error {
	err := isFile("ncrna", c.Ncrna)
	if c.Models == "" {
		err = multierr.Append(err, fmt.Errorf("models: required"))
	} else if info, statErr := os.Stat(c.Models); statErr != nil || !info.IsDir() {
		err = multierr.Append(err, fmt.Errorf("models: directory with covariance models does not exist at %s", c.Models))
	}
	return err
}

// QueryLabel is the name of the query species: QueryName if set, otherwise
// the query file's name without its extension.
func (c *Config) QueryLabel() string {
	if c.QueryName != "" {
		return c.QueryName
	}
	base := filepath.Base(c.Query)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isFile(flag, path string) error {
	if path == "" {
		return fmt.Errorf("%s: required", flag)
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%s: %s is not a file", flag, path)
	}
	return nil
}
