package ortho

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// ErrNoModel is returned by Calibrate when a miRNA has no covariance model.
var ErrNoModel = errors.New("no covariance model")

// Calibrator scores each miRNA's precursor against its own covariance model.
// That score is the reference for filtering hits in the query genome.
type Calibrator struct {
	// Searcher runs the self search
	Searcher ProfileSearcher

	// Models is the directory with <name>.cm covariance models
	Models string

	// Work is the directory for temporary query and result files
	Work string

	// CPU is passed through to the search
	CPU int

	// Log gets progress and warnings. Discarded if nil
	Log *log.Logger

	scores map[string]float64
}

// Model returns the path to the miRNA's covariance model.
func (c *Calibrator) Model(name string) string {
	return filepath.Join(c.Models, name+".cm")
}

// Calibrate returns a copy of m with Bit set to the best score of its
// precursor against its own model.
//
// A search without any hit sets Bit to 0.0, which turns the score filter off
// for this miRNA rather than dropping all its candidates. A missing model
// returns ErrNoModel; a failed search returns its error. Either way the caller
// should skip the miRNA. Each miRNA is scored at most once.
func (c *Calibrator) Calibrate(ctx context.Context, m Mirna) (Mirna, error) {
	if bit, ok := c.scores[m.Name]; ok {
		return m.WithBit(bit), nil
	}

	model := c.Model(m.Name)
	if _, err := os.Stat(model); err != nil {
		return m, fmt.Errorf("%w for %s at %s", ErrNoModel, m.Name, model)
	}

	c.logger().Printf("# Calculating reference bit score for %s.\n", m.Name)
	bit, err := c.selfScore(ctx, m, model)
	if err != nil {
		return m, fmt.Errorf("failed to calibrate %s: %w", m.Name, err)
	}

	if c.scores == nil {
		c.scores = make(map[string]float64)
	}
	c.scores[m.Name] = bit

	return m.WithBit(bit), nil
}

// selfScore runs the self search and returns the top score, 0.0 without hits.
func (c *Calibrator) selfScore(ctx context.Context, m Mirna, model string) (float64, error) {
	req := SearchRequest{
		Model: model,
		Query: filepath.Join(c.Work, m.Name+".fa"),
		Out:   filepath.Join(c.Work, "ref_cmsearch_"+m.Name+"_tmp.out"),
		Log:   filepath.Join(c.Work, "ref_cmsearch_"+m.Name+".log"),
		CPU:   c.CPU,
	}

	s := newScratch(false, req.Query, req.Out, req.Log)
	defer s.release()

	if err := writeFasta(req.Query, record{m.Name, m.Pre}); err != nil {
		return 0, fmt.Errorf("failed to write query at %s: %w", req.Query, err)
	}

	hits, err := c.Searcher.Search(ctx, req)
	if err != nil {
		return 0, err
	}

	if len(hits) == 0 {
		c.logger().Println("# Warning: Self bit score not applicable, setting threshold to 0.")
		return 0, nil
	}

	top := hits[0].Score
	for _, h := range hits[1:] {
		if h.Score > top {
			top = h.Score
		}
	}
	return top, nil
}

func (c *Calibrator) logger() *log.Logger {
	if c.Log == nil {
		c.Log = log.New(io.Discard, "", 0)
	}
	return c.Log
}
