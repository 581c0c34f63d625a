// Package align runs an external multiple sequence aligner.
package align

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/jjtimmons/ncortho/internal/genome"
	"github.com/jjtimmons/ncortho/internal/ortho"
)

// Runner aligns with MAFFT. It implements ortho.Aligner.
type Runner struct {
	// Mafft is the mafft executable
	Mafft string
}

// Align aligns the sequences of the request's input FASTA, writes the
// alignment to its output file and returns the aligned sequences by ID.
func (r Runner) Align(ctx context.Context, req ortho.AlignRequest) (map[string]string, error) {
	mafft := r.Mafft
	if mafft == "" {
		mafft = "mafft"
	}

	out, err := os.Create(req.Out)
	if err != nil {
		return nil, err
	}

	var stderr bytes.Buffer
	alignCmd := exec.CommandContext(ctx, mafft, "--quiet", "--auto", req.In)
	alignCmd.Stdout = out
	alignCmd.Stderr = &stderr

	runErr := alignCmd.Run()
	if err := out.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return nil, fmt.Errorf("failed to execute %s: %v: %s", mafft, runErr, stderr.String())
	}

	return read(req.Out)
}

// read parses an aligned FASTA file to sequences by ID.
func read(path string) (map[string]string, error) {
	records, err := genome.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alignment: %w", err)
	}

	aligned := make(map[string]string, len(records))
	for _, r := range records {
		aligned[r.ID] = r.Seq
	}
	return aligned, nil
}
