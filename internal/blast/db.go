package blast

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// dbExtensions are the files makeblastdb writes for a nucleotide database.
// Large databases are split into volumes (db.00.nhr, ...).
var dbExtensions = []string{"nhr", "nin", "nsq"}

// Exists reports whether a nucleotide BLAST database is at the db prefix.
func Exists(db string) bool {
	for _, ext := range dbExtensions {
		if _, err := os.Stat(db + "." + ext); err == nil {
			continue
		}
		volumes, err := filepath.Glob(db + ".*." + ext)
		if err != nil || len(volumes) == 0 {
			return false
		}
	}
	return true
}

// Ensure makes a nucleotide BLAST database of fasta at db unless one is
// already there.
func Ensure(ctx context.Context, makeblastdb, fasta, db string) error {
	if Exists(db) {
		return nil
	}

	if _, err := os.Stat(fasta); err != nil {
		return fmt.Errorf("failed to find FASTA for BLAST db: %w", err)
	}

	if makeblastdb == "" {
		makeblastdb = "makeblastdb"
	}

	dbCmd := exec.CommandContext(ctx, makeblastdb, "-in", fasta, "-out", db, "-dbtype", "nucl")
	if output, err := dbCmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to make BLAST db at %s: %v: %s", db, err, string(output))
	}

	if !Exists(db) {
		return fmt.Errorf("makeblastdb didn't create a database at %s", db)
	}
	return nil
}
