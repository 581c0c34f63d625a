package ortho

import (
	"fmt"
	"os"
	"strings"
)

// record is a FASTA entry written to a scratch file.
type record struct {
	id  string
	seq string
}

// scratch owns the temporary files of one step (query, search output, logs).
// Defer release right after creating it.
type scratch struct {
	paths []string
	keep  bool
}

func newScratch(keep bool, paths ...string) *scratch {
	return &scratch{paths: paths, keep: keep}
}

// release removes the files unless they're kept. Errors are ignored.
func (s *scratch) release() {
	if s.keep {
		return
	}
	for _, p := range s.paths {
		os.Remove(p)
	}
}

// writeFasta writes the records to path.
func writeFasta(path string, records ...record) error {
	var sb strings.Builder
	for _, r := range records {
		fmt.Fprintf(&sb, ">%s\n%s\n", r.id, r.seq)
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}
