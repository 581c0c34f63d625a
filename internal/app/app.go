// Package app wires the ortholog search to its external programs and runs
// it from the command line.
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/jjtimmons/ncortho/config"
	"github.com/jjtimmons/ncortho/internal/align"
	"github.com/jjtimmons/ncortho/internal/blast"
	"github.com/jjtimmons/ncortho/internal/cmsearch"
	"github.com/jjtimmons/ncortho/internal/genome"
	"github.com/jjtimmons/ncortho/internal/ortho"
)

// ReportFile is the name of the run report in the output directory.
const ReportFile = "ncortho_report.yaml"

// Layout is where a run reads and writes its files.
type Layout struct {
	// Output is the query's output directory
	Output string

	// Data holds the query link and the BLAST dbs made by the run
	Data string

	// Query is a link to the query genome
	Query string

	// RefDB is the reference genome's BLAST db
	RefDB string

	// QueryDB is the query genome's BLAST db, only set for heuristic runs
	QueryDB string
}

// Prepare makes the output directories, links the query genome into them,
// and finds or makes the BLAST dbs the run needs.
func Prepare(ctx context.Context, conf *config.Config) (Layout, error) {
	label := conf.QueryLabel()

	l := Layout{Output: conf.Output}
	if filepath.Base(l.Output) != label {
		l.Output = filepath.Join(l.Output, label)
	}
	l.Data = filepath.Join(l.Output, "data")
	if err := os.MkdirAll(l.Data, 0755); err != nil {
		return l, fmt.Errorf("failed to make output directory: %w", err)
	}

	// link the query to guarantee write permission next to it for its db
	query, err := filepath.Abs(conf.Query)
	if err != nil {
		return l, err
	}
	l.Query = filepath.Join(l.Data, label+".fa")
	if err := os.Symlink(query, l.Query); err != nil && !os.IsExist(err) {
		return l, fmt.Errorf("failed to link query genome: %w", err)
	}

	if conf.RefBlast != "" {
		if !blast.Exists(conf.RefBlast) {
			return l, fmt.Errorf("reference BLAST db not found at %s", conf.RefBlast)
		}
		l.RefDB = conf.RefBlast
	} else {
		l.RefDB = filepath.Join(l.Data, filepath.Base(conf.Reference))
		if err := blast.Ensure(ctx, conf.Makeblastdb, conf.Reference, l.RefDB); err != nil {
			return l, err
		}
	}

	if !conf.Heuristic {
		return l, nil
	}
	if conf.QueryBlast != "" {
		if !blast.Exists(conf.QueryBlast) {
			return l, fmt.Errorf("query BLAST db not found at %s", conf.QueryBlast)
		}
		l.QueryDB = conf.QueryBlast
	} else {
		l.QueryDB = l.Query
		if err := blast.Ensure(ctx, conf.Makeblastdb, l.Query, l.QueryDB); err != nil {
			return l, err
		}
	}
	return l, nil
}

// Search runs the ortholog search of every miRNA and writes the run report.
// Progress is logged to logger.
func Search(ctx context.Context, conf *config.Config, logger *log.Logger) (ortho.Report, error) {
	layout, err := Prepare(ctx, conf)
	if err != nil {
		return ortho.Report{}, err
	}

	mirnas, err := ortho.ReadMirnas(conf.Ncrna)
	if err != nil {
		return ortho.Report{}, err
	}

	driver := newDriver(conf, layout, logger)
	report, runErr := driver.Run(ctx, mirnas)

	if err := report.Write(filepath.Join(layout.Output, ReportFile)); err != nil {
		return report, err
	}
	return report, runErr
}

// newDriver wires the driver to the external programs.
func newDriver(conf *config.Config, layout Layout, logger *log.Logger) *ortho.Driver {
	profile := cmsearch.Runner{Cmsearch: conf.Cmsearch}

	source := &cmsearch.Source{
		Searcher: profile,
		Screener: blast.Runner{Blastn: conf.Blastn, DB: layout.QueryDB, Threads: conf.CPU},
		Heuristic: cmsearch.Heuristic{
			Enabled: conf.Heuristic,
			Evalue:  conf.HeurEvalue,
			Length:  conf.HeurLength,
		},
		Models:    conf.Models,
		Genome:    layout.Query,
		Work:      layout.Output,
		CPU:       conf.CPU,
		Cutoff:    conf.CMCutoff,
		MinLength: conf.MinLength,
		Cleanup:   conf.Cleanup,
		Log:       logger,
	}

	validator := &ortho.Validator{
		Searcher:         blast.Runner{Blastn: conf.Blastn, DB: layout.RefDB, Threads: conf.CPU, Dust: conf.Dust},
		Aligner:          align.Runner{Mafft: conf.Aligner},
		CheckCoorthologs: conf.CheckCoorthologs,
		Cleanup:          conf.Cleanup,
		Log:              logger,
	}

	return &ortho.Driver{
		Calibrator: &ortho.Calibrator{
			Searcher: profile,
			Models:   conf.Models,
			Work:     layout.Output,
			CPU:      conf.CPU,
			Log:      logger,
		},
		Source:    source,
		Extractor: genome.Extractor{Path: layout.Query},
		Validator: validator,
		Resolver: &ortho.Resolver{
			Distance: ortho.GenomicDistance{Min: conf.CoorthologDistance},
			Log:      logger,
		},
		Options: ortho.Options{
			Output:  layout.Output,
			Query:   conf.QueryLabel(),
			MaxHits: conf.MaxHits,
			Shared:  conf.Heuristic,
		},
		Log: logger,
	}
}

// Calibrate scores each miRNA against its own model and writes a table of
// the scores to w.
func Calibrate(ctx context.Context, conf *config.Config, w io.Writer, logger *log.Logger) error {
	mirnas, err := ortho.ReadMirnas(conf.Ncrna)
	if err != nil {
		return err
	}

	work, err := os.MkdirTemp("", "ncortho-calibrate")
	if err != nil {
		return err
	}
	defer os.RemoveAll(work)

	c := &ortho.Calibrator{
		Searcher: cmsearch.Runner{Cmsearch: conf.Cmsearch},
		Models:   conf.Models,
		Work:     work,
		CPU:      conf.CPU,
		Log:      logger,
	}
	return calibrate(ctx, c, mirnas, w)
}

func calibrate(ctx context.Context, c *ortho.Calibrator, mirnas []ortho.Mirna, w io.Writer) error {
	writer := tabwriter.NewWriter(w, 0, 4, 3, ' ', 0)
	fmt.Fprintf(writer, "mirna\tbit\t\n")
	for _, m := range mirnas {
		if err := ctx.Err(); err != nil {
			return err
		}

		calibrated, err := c.Calibrate(ctx, m)
		if err != nil {
			fmt.Fprintf(writer, "%s\t-\t%v\n", m.Name, err)
			continue
		}
		fmt.Fprintf(writer, "%s\t%.2f\t\n", m.Name, calibrated.Bit)
	}
	return writer.Flush()
}
