package genome

import (
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const genomeFasta = `>1 dna:chromosome
ACGTACGTAC
GTACGTACGT
>chr2
ttttgggccc

>3
AAAAACCCCCGGGGGTTTTT
`

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeGzip(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	fh, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gw := gzip.NewWriter(fh)
	if _, err := gw.Write([]byte(data)); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := fh.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadAll(t *testing.T) {
	want := []Record{
		{ID: "1", Seq: "ACGTACGTACGTACGTACGT"},
		{ID: "chr2", Seq: "TTTTGGGCCC"},
		{ID: "3", Seq: "AAAAACCCCCGGGGGTTTTT"},
	}

	tests := []struct {
		name string
		path string
	}{
		{"plain", writeFile(t, "genome.fa", genomeFasta)},
		{"gzip by suffix", writeGzip(t, "genome.fa.gz", genomeFasta)},
		{"gzip by magic", writeGzip(t, "genome.fa", genomeFasta)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadAll(tt.path)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("ReadAll() = %v, want %v", got, want)
			}
		})
	}
}

func TestReadAll_errors(t *testing.T) {
	if _, err := ReadAll(filepath.Join(t.TempDir(), "missing.fa")); err == nil {
		t.Error("expected an error for a missing file")
	}

	path := writeFile(t, "bad.fa", "ACGT\n>1\nACGT\n")
	if _, err := ReadAll(path); err == nil {
		t.Error("expected an error for a sequence without a header")
	}
}

func TestScan_stop(t *testing.T) {
	path := writeFile(t, "genome.fa", genomeFasta)
	stop := errors.New("stop")

	var ids []string
	err := Scan(context.Background(), path, func(r Record) error {
		ids = append(ids, r.ID)
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("Scan() error = %v, want %v", err, stop)
	}
	if len(ids) != 1 {
		t.Errorf("Scan() emitted %v after being stopped", ids)
	}
}

func TestScan_cancelled(t *testing.T) {
	path := writeFile(t, "genome.fa", genomeFasta)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Scan(ctx, path, func(Record) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Scan() error = %v, want context.Canceled", err)
	}
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.fa")
	seq := strings.Repeat("A", 60) + "CC"
	if err := Write(path, Record{ID: "x", Seq: seq}, Record{ID: "y", Seq: "GG"}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := ">x\n" + strings.Repeat("A", 60) + "\nCC\n>y\nGG\n"
	if string(data) != want {
		t.Errorf("Write() wrote %q, want %q", data, want)
	}
}

func TestReverseComplement(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"ACGT", "ACGT"},
		{"AACG", "CGTT"},
		{"acgN", "Ncgt"},
		{"AUG", "CAT"},
	}

	for _, tt := range tests {
		if got := ReverseComplement(tt.in); got != tt.want {
			t.Errorf("ReverseComplement(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
