// Package blast runs blastn searches and manages the BLAST databases they
// search against.
package blast

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/jjtimmons/ncortho/internal/ortho"
)

// outfmt is the tabular format of every search. Column order is relied on by
// parseAlignments.
const outfmt = "6 qseqid sseqid pident length mismatch gapopen qstart qend sstart send evalue bitscore sseq"

// maxTargets caps the subject sequences reported per reverse search.
const maxTargets = 10

// Runner runs blastn against one database.
type Runner struct {
	// Blastn is the blastn executable
	Blastn string

	// DB is the database searched
	DB string

	// Threads is passed to -num_threads
	Threads int

	// Dust filters low complexity regions of the query
	Dust bool
}

// Search runs a candidate against the reference genome database. It
// implements ortho.ReverseSearcher. Alignments are returned in blastn's
// order, best first.
func (r Runner) Search(ctx context.Context, req ortho.ReverseRequest) ([]ortho.Alignment, error) {
	return r.run(ctx, req.Query, req.Out,
		"-max_target_seqs", strconv.Itoa(maxTargets),
		"-dust", r.dust(),
	)
}

// Screen runs query against the database, keeping alignments with an
// e-value of at most evalue. It's used to find the regions of the query
// genome worth searching with a covariance model.
func (r Runner) Screen(ctx context.Context, query, out string, evalue float64) ([]ortho.Alignment, error) {
	return r.run(ctx, query, out,
		"-evalue", strconv.FormatFloat(evalue, 'g', -1, 64),
		"-dust", r.dust(),
	)
}

// run calls the external blastn binary and parses its output file
func (r Runner) run(ctx context.Context, query, out string, extra ...string) ([]ortho.Alignment, error) {
	threads := r.Threads
	if threads < 1 {
		threads = 1
	}

	// https://www.ncbi.nlm.nih.gov/books/NBK279682/
	args := []string{
		"-task", "blastn",
		"-db", r.DB,
		"-query", query,
		"-out", out,
		"-num_threads", strconv.Itoa(threads),
		"-outfmt", outfmt,
	}
	args = append(args, extra...)

	blastCmd := exec.CommandContext(ctx, r.blastn(), args...)
	if output, err := blastCmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("failed to execute blastn: %v: %s", err, string(output))
	}

	f, err := os.Open(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read blastn output: %w", err)
	}
	defer f.Close()

	alignments, err := parseAlignments(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse blastn output %s: %w", out, err)
	}
	return alignments, nil
}

func (r Runner) blastn() string {
	if r.Blastn == "" {
		return "blastn"
	}
	return r.Blastn
}

func (r Runner) dust() string {
	if r.Dust {
		return "yes"
	}
	return "no"
}

// parseAlignments reads outfmt 6 lines into Alignments
func parseAlignments(r io.Reader) (alignments []ortho.Alignment, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())

		// comment lines start with a #
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cols := strings.Fields(line)
		if len(cols) < 12 {
			return nil, fmt.Errorf("line %d: expected at least 12 columns, found %d", lineNo, len(cols))
		}

		a := ortho.Alignment{Query: cols[0], Subject: cols[1]}
		floats := []struct {
			dst *float64
			col int
		}{{&a.Identity, 2}, {&a.Evalue, 10}, {&a.Bit, 11}}
		for _, f := range floats {
			if *f.dst, err = strconv.ParseFloat(cols[f.col], 64); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		}

		ints := []struct {
			dst *int
			col int
		}{
			{&a.Length, 3}, {&a.Mismatches, 4}, {&a.GapOpens, 5},
			{&a.QueryStart, 6}, {&a.QueryEnd, 7},
			{&a.SubjectStart, 8}, {&a.SubjectEnd, 9},
		}
		for _, i := range ints {
			if *i.dst, err = strconv.Atoi(cols[i.col]); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		}

		// sseq is empty when blastn isn't asked for it
		if len(cols) > 12 {
			a.SubjectSeq = cols[12]
		}

		alignments = append(alignments, a)
	}
	return alignments, sc.Err()
}
