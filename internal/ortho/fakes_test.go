package ortho

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// profileStub returns fixed hits per model file and records which scratch
// files existed while it ran.
type profileStub struct {
	hits    map[string][]Hit
	err     error
	calls   int
	queries []string
}

func (p *profileStub) Search(ctx context.Context, req SearchRequest) ([]Hit, error) {
	p.calls++
	if _, err := os.Stat(req.Query); err != nil {
		return nil, fmt.Errorf("query file missing: %w", err)
	}
	p.queries = append(p.queries, req.Query)

	// pretend to be the external program: leave result files behind
	os.WriteFile(req.Out, []byte("# results\n"), 0644)
	os.WriteFile(req.Log, []byte("log\n"), 0644)

	if p.err != nil {
		return nil, p.err
	}
	return p.hits[filepath.Base(req.Model)], nil
}

type sourceStub struct {
	loci map[string][]Locus
	err  map[string]error
}

func (s *sourceStub) Candidates(ctx context.Context, m Mirna) ([]Locus, error) {
	if err := s.err[m.Name]; err != nil {
		return nil, err
	}
	return s.loci[m.Name], nil
}

type extractorStub struct {
	seqs      map[string]string
	requested []string
}

func (e *extractorStub) Extract(ctx context.Context, loci []Locus) (map[string]string, error) {
	out := make(map[string]string)
	for _, l := range loci {
		e.requested = append(e.requested, l.ID)
		if s, ok := e.seqs[l.ID]; ok {
			out[l.ID] = s
		}
	}
	return out, nil
}

type reverseStub struct {
	alignments map[string][]Alignment
	err        map[string]error
	searched   []string

	// during runs while the search is in flight
	during func()
}

func (r *reverseStub) Search(ctx context.Context, req ReverseRequest) ([]Alignment, error) {
	r.searched = append(r.searched, req.ID)
	if _, err := os.Stat(req.Query); err != nil {
		return nil, fmt.Errorf("query file missing: %w", err)
	}
	os.WriteFile(req.Out, []byte("out\n"), 0644)

	if r.during != nil {
		r.during()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if err := r.err[req.ID]; err != nil {
		return nil, err
	}
	return r.alignments[req.ID], nil
}

type alignerStub struct {
	aligned map[string]string
}

func (a *alignerStub) Align(ctx context.Context, req AlignRequest) (map[string]string, error) {
	if _, err := os.Stat(req.In); err != nil {
		return nil, err
	}
	os.WriteFile(req.Out, []byte("aln\n"), 0644)
	return a.aligned, nil
}

// countingDistance counts evaluations and treats every pair as redundant
// when they're within min bp.
type countingDistance struct {
	GenomicDistance
	calls int
}

func (c *countingDistance) Redundant(a, b Locus) bool {
	c.calls++
	return c.GenomicDistance.Redundant(a, b)
}

// modelDir creates a directory with an empty covariance model per name.
func modelDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n+".cm"), []byte("CM\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// files lists the regular files in dir.
func files(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}
