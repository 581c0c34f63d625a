// Package ortho finds orthologs of reference miRNAs in a query genome.
//
// Candidates come from a covariance model search that is calibrated per
// miRNA against the miRNA's own precursor. Each candidate is verified by a
// reciprocal search against the reference genome: it's accepted when its best
// reverse hit lands on the reference miRNA's own locus (or, optionally, on a
// co-ortholog of it). When several candidates are accepted for one miRNA,
// redundant calls of the same locus are collapsed before writing the results.
//
// The external programs (cmsearch, blastn, an aligner) sit behind the small
// interfaces in collab.go so the decision logic here never shells out itself.
package ortho

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Mirna is a reference miRNA.
//
// Records are values. Calibration returns a copy with Bit set rather than
// updating a shared record.
type Mirna struct {
	// Name is the miRNA identifier, unique within one run
	Name string

	// Chromosome the precursor sits on, without a leading "chr"
	Chromosome string

	// Start of the precursor (1-based, inclusive)
	Start int

	// End of the precursor (1-based, inclusive)
	End int

	// Strand is "+" or "-"
	Strand string

	// Pre is the precursor sequence (DNA alphabet)
	Pre string

	// Mature is the mature miRNA sequence (DNA alphabet)
	Mature string

	// Bit is the score of the precursor against its own covariance model.
	// 0.0 turns the score-ratio filter off for this miRNA.
	Bit float64
}

// NewMirna normalizes the chromosome name and converts both sequences from
// RNA to DNA.
func NewMirna(name, chromosome string, start, end int, strand, pre, mature string) Mirna {
	return Mirna{
		Name:       name,
		Chromosome: normChromosome(chromosome),
		Start:      start,
		End:        end,
		Strand:     strand,
		Pre:        toDNA(pre),
		Mature:     toDNA(mature),
	}
}

// WithBit returns a copy of the miRNA with its reference bit score set.
func (m Mirna) WithBit(bit float64) Mirna {
	m.Bit = bit
	return m
}

// Overlaps reports whether [start, end] on chromosome intersects the miRNA's
// precursor locus.
func (m Mirna) Overlaps(chromosome string, start, end int) bool {
	if normChromosome(chromosome) != m.Chromosome {
		return false
	}
	if start > end {
		start, end = end, start
	}
	return start <= m.End && m.Start <= end
}

// ReadMirnas parses a miRNA metadata file.
//
// Lines starting with '#' are comments. Every other non-blank line holds
// whitespace separated columns: name, chromosome, start, end, strand,
// precursor, mature.
func ReadMirnas(path string) ([]Mirna, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mirnas, err := parseMirnas(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse miRNAs from %s: %w", path, err)
	}
	return mirnas, nil
}

func parseMirnas(r io.Reader) ([]Mirna, error) {
	var mirnas []Mirna
	seen := make(map[string]bool)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cols := strings.Fields(line)
		if len(cols) < 7 {
			return nil, fmt.Errorf("line %d: expected 7 columns, found %d", lineNo, len(cols))
		}

		start, err := strconv.Atoi(cols[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad start %q", lineNo, cols[2])
		}
		end, err := strconv.Atoi(cols[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad end %q", lineNo, cols[3])
		}
		if start > end {
			return nil, fmt.Errorf("line %d: start %d is after end %d", lineNo, start, end)
		}
		if cols[4] != "+" && cols[4] != "-" {
			return nil, fmt.Errorf("line %d: bad strand %q", lineNo, cols[4])
		}
		if seen[cols[0]] {
			return nil, fmt.Errorf("line %d: duplicate miRNA %s", lineNo, cols[0])
		}
		seen[cols[0]] = true

		mirnas = append(mirnas, NewMirna(cols[0], cols[1], start, end, cols[4], cols[5], cols[6]))
	}

	return mirnas, sc.Err()
}

// normChromosome strips a leading "chr" so "chr2" and "2" compare equal.
func normChromosome(c string) string {
	return strings.TrimPrefix(c, "chr")
}

func toDNA(seq string) string {
	return strings.NewReplacer("U", "T", "u", "t").Replace(seq)
}
