package ortho

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// headerSep joins the locus fields in an output header.
const headerSep = "|"

// OutputPath is where the verified orthologs of a miRNA are written.
func OutputPath(dir, name string) string {
	return filepath.Join(dir, name+"_orthologs.fa")
}

// header is the locus fields with the query name inserted after the ID:
// id|query|chromosome|start|end|strand|score
func header(o Ortholog) string {
	fields := o.Fields()
	fields = append(fields[:1], append([]string{o.Query}, fields[1:]...)...)
	return strings.Join(fields, headerSep)
}

// parseHeader is the inverse of header. Chromosome names may contain the
// separator (NCBI style IDs), so the chromosome is everything between the
// query and the last four fields.
func parseHeader(h string) (Ortholog, error) {
	cols := strings.Split(h, headerSep)
	if len(cols) < 7 {
		return Ortholog{}, fmt.Errorf("expected at least 7 fields in header %q, found %d", h, len(cols))
	}
	tail := cols[len(cols)-4:]

	start, err := strconv.Atoi(tail[0])
	if err != nil {
		return Ortholog{}, fmt.Errorf("bad start in header %q: %w", h, err)
	}
	end, err := strconv.Atoi(tail[1])
	if err != nil {
		return Ortholog{}, fmt.Errorf("bad end in header %q: %w", h, err)
	}
	score, err := strconv.ParseFloat(tail[3], 64)
	if err != nil {
		return Ortholog{}, fmt.Errorf("bad score in header %q: %w", h, err)
	}

	return Ortholog{
		Locus: Locus{
			ID:         cols[0],
			Chromosome: strings.Join(cols[2:len(cols)-4], headerSep),
			Start:      start,
			End:        end,
			Strand:     tail[2],
			Score:      score,
		},
		Query: cols[1],
	}, nil
}

// WriteOrthologs writes one FASTA record per ortholog to path.
func WriteOrthologs(path string, orthologs []Ortholog) error {
	records := make([]record, 0, len(orthologs))
	for _, o := range orthologs {
		records = append(records, record{header(o), o.Seq})
	}

	if err := writeFasta(path, records...); err != nil {
		return fmt.Errorf("failed to write orthologs to %s: %w", path, err)
	}
	return nil
}

// ReadOrthologs reads an ortholog file written by WriteOrthologs.
func ReadOrthologs(path string) ([]Ortholog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		orthologs []Ortholog
		seq       strings.Builder
	)
	flush := func() {
		if len(orthologs) > 0 {
			orthologs[len(orthologs)-1].Seq = seq.String()
		}
		seq.Reset()
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ">") {
			flush()
			o, err := parseHeader(line[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to read orthologs from %s: %w", path, err)
			}
			orthologs = append(orthologs, o)
			continue
		}

		if len(orthologs) == 0 {
			return nil, fmt.Errorf("failed to read orthologs from %s: sequence before first header", path)
		}
		seq.WriteString(line)
	}
	flush()

	return orthologs, sc.Err()
}
