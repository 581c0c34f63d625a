// Package genome reads genome FASTA files and cuts loci and regions out of
// them.
package genome

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record is a single FASTA entry.
type Record struct {
	ID  string
	Seq string
}

// gzipFile closes the gzip stream and the file beneath it.
type gzipFile struct {
	io.Reader
	closers []io.Closer
}

func (g *gzipFile) Close() error {
	var err error
	for _, c := range g.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// open opens a FASTA file, decompressing it if it's gzipped.
func open(path string) (io.ReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	// gzip magic number or a .gz suffix
	var sig [2]byte
	n, _ := fh.Read(sig[:])
	_, _ = fh.Seek(0, io.SeekStart)
	if (n == 2 && sig[0] == 0x1f && sig[1] == 0x8b) || strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(fh)
		if err != nil {
			_ = fh.Close()
			return nil, err
		}
		return &gzipFile{Reader: gr, closers: []io.Closer{gr, fh}}, nil
	}
	return fh, nil
}

// Scan streams the records of the FASTA file at path to emit, one at a time.
// A record's ID is the first word of its header. Returning an error from emit
// stops the scan and Scan returns it.
func Scan(ctx context.Context, path string, emit func(Record) error) error {
	rc, err := open(path)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := scan(ctx, rc, emit); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

func scan(ctx context.Context, r io.Reader, emit func(Record) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024) // single line chromosomes

	var (
		id     string
		inside bool
		seq    strings.Builder
	)

	flush := func() error {
		if !inside {
			return nil
		}
		rec := Record{ID: id, Seq: strings.ToUpper(seq.String())}
		seq.Reset()
		return emit(rec)
	}

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				return err
			}
			id, inside = headerID(line[1:]), true
			continue
		}
		if !inside {
			return fmt.Errorf("sequence before the first header")
		}
		seq.WriteString(line)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return flush()
}

// ReadAll reads every record of the FASTA file at path.
func ReadAll(path string) ([]Record, error) {
	var records []Record
	err := Scan(context.Background(), path, func(r Record) error {
		records = append(records, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Write writes the records to path, wrapping sequence lines at 60 bases.
func Write(path string, records ...Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	for _, r := range records {
		fmt.Fprintf(w, ">%s\n", r.ID)
		for i := 0; i < len(r.Seq); i += 60 {
			end := i + 60
			if end > len(r.Seq) {
				end = len(r.Seq)
			}
			fmt.Fprintln(w, r.Seq[i:end])
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func headerID(header string) string {
	if f := strings.Fields(header); len(f) > 0 {
		return f[0]
	}
	return ""
}

// ReverseComplement returns the reverse complement of a DNA sequence.
// Characters other than ACGTN are kept as is.
func ReverseComplement(seq string) string {
	out := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		out[len(seq)-1-i] = complement(seq[i])
	}
	return string(out)
}

func complement(b byte) byte {
	switch b {
	case 'A':
		return 'T'
	case 'T', 'U':
		return 'A'
	case 'G':
		return 'C'
	case 'C':
		return 'G'
	case 'a':
		return 't'
	case 't', 'u':
		return 'a'
	case 'g':
		return 'c'
	case 'c':
		return 'g'
	}
	return b
}
