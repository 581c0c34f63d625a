package ortho

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
)

// Outcome is the state of one candidate's reciprocal validation.
type Outcome int

const (
	// Pending candidates haven't been searched yet
	Pending Outcome = iota

	// Accepted candidates are verified orthologs
	Accepted

	// NeedsCoorthologCheck candidates hit the reference genome somewhere
	// other than the miRNA's locus
	NeedsCoorthologCheck

	// Rejected candidates aren't orthologs
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Accepted:
		return "accepted"
	case NeedsCoorthologCheck:
		return "needs-coortholog-check"
	case Rejected:
		return "rejected"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Classify applies the reciprocal best hit criterion to a candidate's reverse
// search. alignments must be sorted best first.
func Classify(m Mirna, alignments []Alignment) Outcome {
	if len(alignments) == 0 {
		return Rejected
	}

	best := alignments[0]
	if m.Overlaps(best.Subject, best.SubjectStart, best.SubjectEnd) {
		return Accepted
	}
	return NeedsCoorthologCheck
}

// Validator verifies candidates by searching them back against the
// reference genome.
type Validator struct {
	// Searcher searches candidates against the reference genome
	Searcher ReverseSearcher

	// Aligner is used by the co-ortholog check
	Aligner Aligner

	// CheckCoorthologs accepts candidates whose best hit is a likely
	// co-ortholog of the reference miRNA
	CheckCoorthologs bool

	// Cleanup removes the per-candidate query and result files
	Cleanup bool

	// Log gets progress. Discarded if nil
	Log *log.Logger
}

// Validate runs the reverse search for one candidate and returns Accepted or
// Rejected. Temporary files are written to dir and removed on every return
// path when Cleanup is set. On error the candidate should be treated as
// Rejected.
func (v *Validator) Validate(ctx context.Context, m Mirna, c Candidate, dir string) (Outcome, error) {
	req := ReverseRequest{
		ID:    c.ID,
		Seq:   c.Seq,
		Query: filepath.Join(dir, c.ID+".fa"),
		Out:   filepath.Join(dir, "blast_"+c.ID+".out"),
	}

	s := newScratch(!v.Cleanup, req.Query, req.Out)
	defer s.release()

	if err := writeFasta(req.Query, record{c.ID, c.Seq}); err != nil {
		return Rejected, fmt.Errorf("failed to write reverse search query for %s: %w", c.ID, err)
	}

	v.logger().Printf("# Starting reverse blast for %s\n", c.ID)
	alignments, err := v.Searcher.Search(ctx, req)
	if err != nil {
		return Rejected, fmt.Errorf("reverse search of %s failed: %w", c.ID, err)
	}

	outcome := Classify(m, alignments)
	switch outcome {
	case Accepted:
		v.logger().Println("Found best hit")
	case NeedsCoorthologCheck:
		if !v.CheckCoorthologs {
			v.logger().Println("Best hit does not overlap with miRNA location")
			return Rejected, nil
		}

		v.logger().Println("Best hit differs from reference sequence! Doing further checks")
		coortholog, err := v.coortholog(ctx, m, c, alignments[0], dir)
		if err != nil {
			return Rejected, fmt.Errorf("co-ortholog check of %s failed: %w", c.ID, err)
		}
		if !coortholog {
			v.logger().Println("Best hit is not a co-ortholog of the reference miRNA")
			return Rejected, nil
		}
		outcome = Accepted
	default:
		v.logger().Printf("No reverse blast hit for %s\n", c.ID)
	}

	return outcome, nil
}

// coortholog aligns the candidate, the reference precursor and the best
// reverse hit and checks whether the reference and the best hit are closer to
// one another than the best hit is to the candidate. If they are, the best
// hit and the reference miRNA are in-paralogs from a duplication in the
// reference lineage, and both are co-orthologs of the candidate.
func (v *Validator) coortholog(ctx context.Context, m Mirna, c Candidate, best Alignment, dir string) (bool, error) {
	if v.Aligner == nil {
		return false, fmt.Errorf("no aligner")
	}

	req := AlignRequest{
		In:  filepath.Join(dir, c.ID+"_coorth.fa"),
		Out: filepath.Join(dir, c.ID+"_coorth.aln"),
	}

	s := newScratch(!v.Cleanup, req.In, req.Out)
	defer s.release()

	const (
		candID = "candidate"
		refID  = "reference"
		hitID  = "besthit"
	)
	err := writeFasta(req.In,
		record{candID, c.Seq},
		record{refID, m.Pre},
		record{hitID, strings.ReplaceAll(best.SubjectSeq, "-", "")},
	)
	if err != nil {
		return false, err
	}

	aligned, err := v.Aligner.Align(ctx, req)
	if err != nil {
		return false, err
	}
	for _, id := range []string{candID, refID, hitID} {
		if _, ok := aligned[id]; !ok {
			return false, fmt.Errorf("%s missing from alignment %s", id, req.Out)
		}
	}

	return CoorthologOfReference(aligned[candID], aligned[refID], aligned[hitID]), nil
}

// CoorthologOfReference takes the aligned candidate, reference and best hit
// sequences and reports whether the reference is at least as close to the
// best hit as the candidate is.
func CoorthologOfReference(candidate, reference, best string) bool {
	return PDistance(reference, best) <= PDistance(candidate, best)
}

// PDistance is the share of mismatching columns between two aligned
// sequences, ignoring columns with a gap in either. It's 1 when no column
// can be compared.
func PDistance(a, b string) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	compared, mismatches := 0, 0
	for i := 0; i < n; i++ {
		x, y := upper(a[i]), upper(b[i])
		if x == '-' || y == '-' || x == '.' || y == '.' {
			continue
		}
		compared++
		if x != y {
			mismatches++
		}
	}

	if compared == 0 {
		return 1
	}
	return float64(mismatches) / float64(compared)
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

func (v *Validator) logger() *log.Logger {
	if v.Log == nil {
		v.Log = log.New(io.Discard, "", 0)
	}
	return v.Log
}
