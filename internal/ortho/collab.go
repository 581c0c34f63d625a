package ortho

import (
	"context"
)

// Hit is one row of a covariance model search.
type Hit struct {
	// Target is the name of the searched sequence
	Target string

	// Start and End on Target (1-based, inclusive, Start <= End)
	Start int
	End   int

	// Strand is "+" or "-"
	Strand string

	// Score is the bit score of the hit
	Score float64
}

// SearchRequest is a covariance model search of every sequence in Query.
type SearchRequest struct {
	// Model is the path to the covariance model
	Model string

	// Query is a FASTA file with the sequences to search
	Query string

	// Out is where the tabular result is written
	Out string

	// Log is where the human readable search output is written
	Log string

	// CPU is the number of threads the search may use
	CPU int
}

// ProfileSearcher runs a covariance model search. Hits come back best
// score first.
type ProfileSearcher interface {
	Search(ctx context.Context, req SearchRequest) ([]Hit, error)
}

// CandidateSource finds candidate loci for a calibrated miRNA in the query
// genome. Loci come back best score first.
type CandidateSource interface {
	Candidates(ctx context.Context, m Mirna) ([]Locus, error)
}

// Extractor returns the query genome sequence under each locus, keyed by
// Locus.ID. Loci it can't extract are left out of the map.
type Extractor interface {
	Extract(ctx context.Context, loci []Locus) (map[string]string, error)
}

// Alignment is one reverse search hit against the reference genome.
type Alignment struct {
	Query        string
	Subject      string
	Identity     float64
	Length       int
	Mismatches   int
	GapOpens     int
	QueryStart   int
	QueryEnd     int
	SubjectStart int
	SubjectEnd   int
	Evalue       float64
	Bit          float64

	// SubjectSeq is the aligned subject sequence (gaps included)
	SubjectSeq string
}

// ReverseRequest is a search of one candidate against the reference genome.
// The caller writes the candidate to Query as FASTA before searching.
type ReverseRequest struct {
	ID    string
	Seq   string
	Query string
	Out   string
}

// ReverseSearcher searches a candidate against the reference genome.
// Alignments come back best first.
type ReverseSearcher interface {
	Search(ctx context.Context, req ReverseRequest) ([]Alignment, error)
}

// AlignRequest is a multiple alignment of the FASTA records in In.
type AlignRequest struct {
	In  string
	Out string
}

// Aligner aligns sequences, returning the aligned (gapped) sequences by ID.
type Aligner interface {
	Align(ctx context.Context, req AlignRequest) (map[string]string, error)
}
