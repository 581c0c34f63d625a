package genome

import (
	"context"

	"github.com/jjtimmons/ncortho/internal/ortho"
)

// Extractor cuts loci out of a genome FASTA file.
type Extractor struct {
	// Path to the genome FASTA, optionally gzipped
	Path string
}

// Extract returns the sequence of each locus keyed by locus ID. Coordinates
// are 1-based and inclusive, and '-' strand loci are reverse complemented.
// Loci on chromosomes absent from the genome are left out of the map. The
// genome is streamed once regardless of the number of loci.
func (e Extractor) Extract(ctx context.Context, loci []ortho.Locus) (map[string]string, error) {
	byChrom := make(map[string][]ortho.Locus)
	for _, l := range loci {
		byChrom[l.Chromosome] = append(byChrom[l.Chromosome], l)
	}

	seqs := make(map[string]string, len(loci))
	err := Scan(ctx, e.Path, func(r Record) error {
		for _, l := range byChrom[r.ID] {
			seq, ok := slice(r.Seq, l.Start, l.End)
			if !ok {
				continue
			}
			if l.Strand == "-" {
				seq = ReverseComplement(seq)
			}
			seqs[l.ID] = seq
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seqs, nil
}

// slice returns seq[start, end] for 1-based inclusive coordinates in either
// order. The range is clipped to the sequence.
func slice(seq string, start, end int) (string, bool) {
	if start > end {
		start, end = end, start
	}
	if start < 1 {
		start = 1
	}
	if end > len(seq) {
		end = len(seq)
	}
	if start > end {
		return "", false
	}
	return seq[start-1 : end], true
}
