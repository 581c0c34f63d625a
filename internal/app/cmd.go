package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jjtimmons/ncortho/config"
	"github.com/jjtimmons/ncortho/internal/ortho"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var (
	stderr = log.New(os.Stderr, "", 0)

	stdout = log.New(os.Stdout, "", 0)
)

// SearchCmd takes a cobra command (with its flags) and runs the ortholog
// search.
func SearchCmd(cmd *cobra.Command, args []string) {
	conf := settings(func(c *config.Config) error { return c.Validate() })

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stdout.Printf("### Starting ncOrtho run for %s\n", conf.Query)
	report, err := Search(ctx, conf, stdout)
	if err != nil {
		stop()
		stderr.Fatalln(err)
	}

	stdout.Printf("### ncOrtho is finished! %d of %d miRNAs have verified orthologs.\n",
		report.Count(ortho.StatusVerified), len(report.Mirnas))
}

// CalibrateCmd takes a cobra command (with its flags) and prints the
// reference bit score of each miRNA.
func CalibrateCmd(cmd *cobra.Command, args []string) {
	conf := settings(func(c *config.Config) error { return c.ValidateModels() })

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Calibrate(ctx, conf, os.Stdout, stderr); err != nil {
		stop()
		stderr.Fatalln(err)
	}
}

// settings loads the config and exits if it's invalid.
func settings(validate func(*config.Config) error) *config.Config {
	conf, err := config.New()
	if err != nil {
		stderr.Fatalln(err)
	}

	if err := validate(conf); err != nil {
		for _, e := range multierr.Errors(err) {
			stderr.Println(e)
		}
		os.Exit(1)
	}
	return conf
}
