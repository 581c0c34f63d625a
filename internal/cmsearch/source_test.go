package cmsearch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jjtimmons/ncortho/internal/genome"
	"github.com/jjtimmons/ncortho/internal/ortho"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searcherStub struct {
	hits    []ortho.Hit
	err     error
	queries []genome.Record
	reqs    []ortho.SearchRequest
}

func (s *searcherStub) Search(ctx context.Context, req ortho.SearchRequest) ([]ortho.Hit, error) {
	s.reqs = append(s.reqs, req)
	records, err := genome.ReadAll(req.Query)
	if err != nil {
		return nil, err
	}
	s.queries = append(s.queries, records...)
	if err := os.WriteFile(req.Out, []byte("#\n"), 0644); err != nil {
		return nil, err
	}
	return s.hits, s.err
}

type screenerStub struct {
	alignments []ortho.Alignment
	evalue     float64
}

func (s *screenerStub) Screen(ctx context.Context, query, out string, evalue float64) ([]ortho.Alignment, error) {
	s.evalue = evalue
	if _, err := os.Stat(query); err != nil {
		return nil, err
	}
	return s.alignments, nil
}

func TestFilter(t *testing.T) {
	m := ortho.NewMirna("mir-1", "1", 1, 10, "+", "ACGTACGTAC", "ACGT").WithBit(100)
	hits := []ortho.Hit{
		{Target: "a", Start: 1, End: 10, Strand: "+", Score: 40},  // below 0.5 * 100
		{Target: "b", Start: 1, End: 10, Strand: "+", Score: 60},  // kept
		{Target: "c", Start: 1, End: 5, Strand: "+", Score: 90},   // too short
		{Target: "d", Start: 11, End: 17, Strand: "-", Score: 50}, // kept, exactly at both cutoffs
		{Target: "e", Start: 1, End: 10, Strand: "+", Score: 75},  // kept
	}

	loci := Filter(m, hits, 0.5, 0.7)
	assert.Equal(t, []ortho.Locus{
		{ID: "mir-1_c1", Chromosome: "e", Start: 1, End: 10, Strand: "+", Score: 75},
		{ID: "mir-1_c2", Chromosome: "b", Start: 1, End: 10, Strand: "+", Score: 60},
		{ID: "mir-1_c3", Chromosome: "d", Start: 11, End: 17, Strand: "-", Score: 50},
	}, loci)
	assert.Equal(t, "a", hits[0].Target, "input order is kept")
}

func TestFilter_zeroBitScore(t *testing.T) {
	m := ortho.NewMirna("mir-1", "1", 1, 10, "+", "ACGTACGTAC", "ACGT")
	hits := []ortho.Hit{{Target: "a", Start: 1, End: 10, Strand: "+", Score: 0.1}}

	loci := Filter(m, hits, 0.5, 0.7)
	require.Len(t, loci, 1)
	assert.Equal(t, "mir-1_c1", loci[0].ID)
}

func TestSource_Candidates(t *testing.T) {
	work := t.TempDir()
	searcher := &searcherStub{hits: []ortho.Hit{
		{Target: "1", Start: 3, End: 12, Strand: "+", Score: 30},
		{Target: "1", Start: 20, End: 29, Strand: "-", Score: 80},
	}}
	s := &Source{
		Searcher:  searcher,
		Models:    "models",
		Genome:    "genome.fa",
		Work:      work,
		CPU:       4,
		Cutoff:    0.5,
		MinLength: 0.7,
		Cleanup:   true,
	}

	// the stub reads the query, so point it at a real genome
	s.Genome = filepath.Join(work, "genome.fa")
	require.NoError(t, genome.Write(s.Genome, genome.Record{ID: "1", Seq: "ACGTACGTACGTACGTACGTACGTACGTACGT"}))

	m := ortho.NewMirna("mir-1", "1", 1, 10, "+", "ACGTACGTAC", "ACGT").WithBit(100)
	loci, err := s.Candidates(context.Background(), m)
	require.NoError(t, err)

	require.Len(t, loci, 1)
	assert.Equal(t, ortho.Locus{ID: "mir-1_c1", Chromosome: "1", Start: 20, End: 29, Strand: "-", Score: 80}, loci[0])

	require.Len(t, searcher.reqs, 1)
	assert.Equal(t, filepath.Join("models", "mir-1.cm"), searcher.reqs[0].Model)
	assert.Equal(t, s.Genome, searcher.reqs[0].Query)
	assert.Equal(t, 4, searcher.reqs[0].CPU)

	_, err = os.Stat(searcher.reqs[0].Out)
	assert.True(t, os.IsNotExist(err), "search output is cleaned up")
}

func TestSource_Candidates_heuristic(t *testing.T) {
	work := t.TempDir()
	seq := make([]byte, 1000)
	for i := range seq {
		seq[i] = "ACGT"[i%4]
	}
	g := filepath.Join(work, "genome.fa")
	require.NoError(t, genome.Write(g,
		genome.Record{ID: "2L", Seq: string(seq)},
		genome.Record{ID: "3R", Seq: string(seq)},
	))

	screener := &screenerStub{alignments: []ortho.Alignment{
		{Subject: "2L", Length: 10, SubjectStart: 500, SubjectEnd: 509},
		{Subject: "2L", Length: 9, SubjectStart: 515, SubjectEnd: 507}, // overlaps the first
		{Subject: "3R", Length: 2, SubjectStart: 100, SubjectEnd: 101}, // too short
	}}
	// region 2L:490-525 after widening by 10 and merging; the hit is on
	// region positions 11-20
	searcher := &searcherStub{hits: []ortho.Hit{{Target: "2L:490-525", Start: 11, End: 20, Strand: "+", Score: 60}}}

	s := &Source{
		Searcher:  searcher,
		Screener:  screener,
		Heuristic: Heuristic{Enabled: true, Evalue: 0.5, Length: 0.5},
		Models:    work,
		Genome:    g,
		Work:      work,
		Cutoff:    0.5,
		MinLength: 0.7,
	}

	m := ortho.NewMirna("mir-1", "2L", 500, 509, "+", "ACGTACGTAC", "ACGT").WithBit(100)
	loci, err := s.Candidates(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, 0.5, screener.evalue)
	require.Len(t, searcher.queries, 1)
	assert.Equal(t, "2L:490-525", searcher.queries[0].ID)
	assert.Equal(t, string(seq[489:525]), searcher.queries[0].Seq)

	assert.Equal(t, []ortho.Locus{
		{ID: "mir-1_c1", Chromosome: "2L", Start: 500, End: 509, Strand: "+", Score: 60},
	}, loci)

	// files are kept without cleanup
	assert.FileExists(t, filepath.Join(work, "mir-1_regions.fa"))
}

func TestSource_Candidates_heuristicNoHits(t *testing.T) {
	work := t.TempDir()
	searcher := &searcherStub{}
	s := &Source{
		Searcher:  searcher,
		Screener:  &screenerStub{},
		Heuristic: Heuristic{Enabled: true, Evalue: 0.5, Length: 0.5},
		Genome:    filepath.Join(work, "genome.fa"),
		Work:      work,
		Cleanup:   true,
	}

	loci, err := s.Candidates(context.Background(), ortho.NewMirna("mir-1", "1", 1, 10, "+", "ACGTACGTAC", "ACGT"))
	require.NoError(t, err)
	assert.Empty(t, loci)
	assert.Empty(t, searcher.reqs, "covariance model search is skipped")
}

func TestSource_Candidates_searchError(t *testing.T) {
	work := t.TempDir()
	g := filepath.Join(work, "genome.fa")
	require.NoError(t, genome.Write(g, genome.Record{ID: "1", Seq: "ACGT"}))

	boom := errors.New("boom")
	s := &Source{Searcher: &searcherStub{err: boom}, Genome: g, Work: work}

	_, err := s.Candidates(context.Background(), ortho.NewMirna("mir-1", "1", 1, 4, "+", "ACGT", "AC"))
	assert.ErrorIs(t, err, boom)
}
