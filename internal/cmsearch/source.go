package cmsearch

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/jjtimmons/ncortho/internal/genome"
	"github.com/jjtimmons/ncortho/internal/ortho"
)

// Screener is a fast nucleotide search of the query genome.
type Screener interface {
	Screen(ctx context.Context, query, out string, evalue float64) ([]ortho.Alignment, error)
}

// Heuristic narrows the covariance model search to the regions of the query
// genome that a blastn search of the precursor hits.
type Heuristic struct {
	Enabled bool

	// Evalue is the blastn e-value cutoff
	Evalue float64

	// Length is the minimum alignment length as a share of the precursor
	Length float64
}

// Source finds ortholog candidates of a miRNA in the query genome by
// searching it with the miRNA's covariance model. It implements
// ortho.CandidateSource.
type Source struct {
	// Searcher runs the covariance model search
	Searcher ortho.ProfileSearcher

	// Screener runs the heuristic pre-filter
	Screener Screener

	// Heuristic settings. Screener is required when enabled
	Heuristic Heuristic

	// Models is the directory of <mirna>.cm files
	Models string

	// Genome is the query genome FASTA
	Genome string

	// Work is where search files are written
	Work string

	// CPU is the search's thread count
	CPU int

	// Cutoff is the minimum hit score as a share of the miRNA's bit score
	Cutoff float64

	// MinLength is the minimum hit length as a share of the precursor
	MinLength float64

	// Cleanup removes search files once they're parsed
	Cleanup bool

	// Log gets progress. Discarded if nil
	Log *log.Logger
}

// Candidates searches the query genome (or the heuristic regions of it) and
// returns the hits that pass the score and length filters as loci, best
// first.
func (s *Source) Candidates(ctx context.Context, m ortho.Mirna) ([]ortho.Locus, error) {
	var scratch []string
	defer func() {
		if s.Cleanup {
			for _, f := range scratch {
				_ = os.Remove(f)
			}
		}
	}()

	query := s.Genome
	var regions bool
	if s.Heuristic.Enabled {
		path, n, err := s.screen(ctx, m, &scratch)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			s.logger().Printf("# No heuristic blast hits for %s\n", m.Name)
			return nil, nil
		}
		query, regions = path, true
	}

	req := ortho.SearchRequest{
		Model: filepath.Join(s.Models, m.Name+".cm"),
		Query: query,
		Out:   filepath.Join(s.Work, "cmsearch_"+m.Name+".out"),
		Log:   filepath.Join(s.Work, "cmsearch_"+m.Name+".log"),
		CPU:   s.CPU,
	}
	scratch = append(scratch, req.Out, req.Log)

	s.logger().Printf("# Running covariance model search for %s\n", m.Name)
	hits, err := s.Searcher.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("covariance model search of %s failed: %w", m.Name, err)
	}

	if regions {
		if hits, err = toGenome(hits); err != nil {
			return nil, err
		}
	}

	return Filter(m, hits, s.Cutoff, s.MinLength), nil
}

// screen runs the precursor against the query genome and writes the regions
// it hits, widened by the precursor's length, to a FASTA file. It returns the
// file and the number of regions in it.
func (s *Source) screen(ctx context.Context, m ortho.Mirna, scratch *[]string) (string, int, error) {
	if s.Screener == nil {
		return "", 0, fmt.Errorf("heuristic search of %s: no screener", m.Name)
	}

	pre := filepath.Join(s.Work, m.Name+"_pre.fa")
	out := filepath.Join(s.Work, "heur_"+m.Name+".out")
	path := filepath.Join(s.Work, m.Name+"_regions.fa")
	*scratch = append(*scratch, pre, out, path)

	if err := genome.Write(pre, genome.Record{ID: m.Name, Seq: m.Pre}); err != nil {
		return "", 0, fmt.Errorf("failed to write precursor of %s: %w", m.Name, err)
	}

	s.logger().Printf("# Running heuristic blast search for %s\n", m.Name)
	alignments, err := s.Screener.Screen(ctx, pre, out, s.Heuristic.Evalue)
	if err != nil {
		return "", 0, fmt.Errorf("heuristic search of %s failed: %w", m.Name, err)
	}

	pad := len(m.Pre)
	var candidates []genome.Region
	for _, a := range alignments {
		if float64(a.Length) < s.Heuristic.Length*float64(pad) {
			continue
		}
		start, end := a.SubjectStart, a.SubjectEnd
		if start > end {
			start, end = end, start
		}
		r := genome.Region{Chromosome: a.Subject, Start: start, End: end}
		candidates = append(candidates, r.Widen(pad))
	}
	if len(candidates) == 0 {
		return path, 0, nil
	}

	written, err := genome.WriteRegions(ctx, s.Genome, genome.Merge(candidates), path)
	if err != nil {
		return "", 0, err
	}
	return path, len(written), nil
}

// toGenome maps hits on regions back to the genome's coordinates.
func toGenome(hits []ortho.Hit) ([]ortho.Hit, error) {
	mapped := make([]ortho.Hit, 0, len(hits))
	for _, h := range hits {
		r, err := genome.ParseRegion(h.Target)
		if err != nil {
			return nil, err
		}
		h.Target = r.Chromosome
		h.Start += r.Start - 1
		h.End += r.Start - 1
		mapped = append(mapped, h)
	}
	return mapped, nil
}

// Filter keeps hits scoring at least cutoff times the miRNA's bit score and
// covering at least minLength of its precursor. The score filter is skipped
// when the miRNA has no bit score. Survivors are sorted best first and named
// <mirna>_c<rank>.
func Filter(m ortho.Mirna, hits []ortho.Hit, cutoff, minLength float64) []ortho.Locus {
	sorted := append([]ortho.Hit(nil), hits...)
	sortHits(sorted)

	var loci []ortho.Locus
	for _, h := range sorted {
		if m.Bit != 0 && h.Score < cutoff*m.Bit {
			continue
		}
		if float64(h.End-h.Start+1) < minLength*float64(len(m.Pre)) {
			continue
		}

		loci = append(loci, ortho.Locus{
			ID:         fmt.Sprintf("%s_c%d", m.Name, len(loci)+1),
			Chromosome: h.Target,
			Start:      h.Start,
			End:        h.End,
			Strand:     h.Strand,
			Score:      h.Score,
		})
	}
	return loci
}

func (s *Source) logger() *log.Logger {
	if s.Log == nil {
		s.Log = log.New(io.Discard, "", 0)
	}
	return s.Log
}
