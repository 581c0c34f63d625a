// Package cmsearch runs Infernal's cmsearch and turns its hits into ortholog
// candidates.
package cmsearch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/jjtimmons/ncortho/internal/ortho"
)

// DefaultEvalue is the e-value threshold of every search.
const DefaultEvalue = 0.01

// Runner runs cmsearch. It implements ortho.ProfileSearcher.
type Runner struct {
	// Cmsearch is the cmsearch executable
	Cmsearch string

	// Evalue is the reporting threshold, DefaultEvalue if 0
	Evalue float64
}

// Search runs the model over every sequence in the request's query file and
// returns the hits best score first.
func (r Runner) Search(ctx context.Context, req ortho.SearchRequest) ([]ortho.Hit, error) {
	cpu := req.CPU
	if cpu < 1 {
		cpu = 1
	}

	evalue := r.Evalue
	if evalue <= 0 {
		evalue = DefaultEvalue
	}

	cmsearch := r.Cmsearch
	if cmsearch == "" {
		cmsearch = "cmsearch"
	}

	cmCmd := exec.CommandContext(ctx, cmsearch,
		"-E", strconv.FormatFloat(evalue, 'g', -1, 64),
		"--noali",
		"--cpu", strconv.Itoa(cpu),
		"-o", req.Log,
		"--tblout", req.Out,
		req.Model,
		req.Query,
	)
	if output, err := cmCmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("failed to execute cmsearch: %v: %s", err, string(output))
	}

	f, err := os.Open(req.Out)
	if err != nil {
		return nil, fmt.Errorf("failed to read cmsearch output: %w", err)
	}
	defer f.Close()

	hits, err := parseTblout(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cmsearch output %s: %w", req.Out, err)
	}
	sortHits(hits)
	return hits, nil
}

// parseTblout reads the hits of a --tblout file. Columns are whitespace
// separated. The ones used are the target name (1), seq from (8), seq to (9),
// strand (10) and score (15).
func parseTblout(r io.Reader) (hits []ortho.Hit, err error) {
	sc := bufio.NewScanner(r)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cols := strings.Fields(line)
		if len(cols) < 15 {
			return nil, fmt.Errorf("line %d: expected at least 15 columns, found %d", lineNo, len(cols))
		}

		from, err := strconv.Atoi(cols[7])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad seq from: %w", lineNo, err)
		}
		to, err := strconv.Atoi(cols[8])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad seq to: %w", lineNo, err)
		}
		score, err := strconv.ParseFloat(cols[14], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad score: %w", lineNo, err)
		}

		// minus strand hits run from high to low
		if from > to {
			from, to = to, from
		}

		hits = append(hits, ortho.Hit{
			Target: cols[0],
			Start:  from,
			End:    to,
			Strand: cols[9],
			Score:  score,
		})
	}
	return hits, sc.Err()
}

func sortHits(hits []ortho.Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
}
