package ortho

import (
	"strconv"
)

// Locus is a covariance model hit in the query genome.
type Locus struct {
	// ID is unique within one miRNA's search, eg "mir-1_c2"
	ID string

	// Chromosome (or contig) name in the query genome
	Chromosome string

	// Start of the hit (1-based, inclusive)
	Start int

	// End of the hit (1-based, inclusive)
	End int

	// Strand is "+" or "-"
	Strand string

	// Score is the covariance model bit score
	Score float64
}

// Len is the length of the locus in bp.
func (l Locus) Len() int {
	return l.End - l.Start + 1
}

// Fields are the locus metadata in output header order.
func (l Locus) Fields() []string {
	return []string{
		l.ID,
		l.Chromosome,
		strconv.Itoa(l.Start),
		strconv.Itoa(l.End),
		l.Strand,
		strconv.FormatFloat(l.Score, 'f', -1, 64),
	}
}

// Gap is the number of bp between two loci on the same chromosome, 0 if they
// overlap. It's -1 for loci on different chromosomes.
func (l Locus) Gap(o Locus) int {
	if l.Chromosome != o.Chromosome {
		return -1
	}
	if l.Start <= o.End && o.Start <= l.End {
		return 0
	}
	if l.End < o.Start {
		return o.Start - l.End - 1
	}
	return l.Start - o.End - 1
}

// Candidate is a locus and the query genome sequence under it.
type Candidate struct {
	Locus

	Seq string
}

// Ortholog is a verified candidate.
type Ortholog struct {
	Locus

	// Seq is the sequence of the locus in the query genome
	Seq string

	// Query is the name of the query genome/taxon
	Query string
}

// Truncate keeps the first max loci. loci must already be sorted best score
// first. A max of 0 or less keeps everything.
func Truncate(loci []Locus, max int) []Locus {
	if max <= 0 || len(loci) <= max {
		return loci
	}
	return loci[:max]
}
