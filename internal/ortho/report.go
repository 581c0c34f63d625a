package ortho

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Status is where a miRNA's search ended.
type Status string

const (
	// StatusSkipped miRNAs had no model or couldn't be calibrated
	StatusSkipped Status = "skipped"

	// StatusNoHits miRNAs had no candidate in the query genome
	StatusNoHits Status = "no-hits"

	// StatusUnverified miRNAs had candidates but none passed the reverse search
	StatusUnverified Status = "unverified"

	// StatusVerified miRNAs have at least one ortholog written out
	StatusVerified Status = "verified"

	// StatusFailed miRNAs hit an error that stopped their search
	StatusFailed Status = "failed"
)

// MirnaResult summarizes one miRNA's search.
type MirnaResult struct {
	Name       string  `yaml:"name"`
	Status     Status  `yaml:"status"`
	Bit        float64 `yaml:"bit"`
	Hits       int     `yaml:"hits"`
	Candidates int     `yaml:"candidates"`
	Accepted   int     `yaml:"accepted"`
	Verified   int     `yaml:"verified"`
	Output     string  `yaml:"output,omitempty"`
	Error      string  `yaml:"error,omitempty"`
}

// Report summarizes a run.
type Report struct {
	Query    string        `yaml:"query"`
	Started  string        `yaml:"started"`
	Finished string        `yaml:"finished"`
	Mirnas   []MirnaResult `yaml:"mirnas"`
}

// Count returns the number of miRNAs that ended with the status.
func (r Report) Count(s Status) (n int) {
	for _, m := range r.Mirnas {
		if m.Status == s {
			n++
		}
	}
	return
}

// Write serializes the report to path as YAML.
func (r Report) Write(path string) error {
	out, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	if err = os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
