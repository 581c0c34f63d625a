package ortho

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Options are the run level settings of a Driver.
type Options struct {
	// Output is the run's output directory
	Output string

	// Query is the name of the query genome, written into every header
	Query string

	// MaxHits caps the candidates examined per miRNA. 0 disables the cap
	MaxHits int

	// Shared puts every miRNA's files in Output rather than in
	// Output/<name>. Heuristic runs share the directory.
	Shared bool
}

// Driver runs the ortholog search for each miRNA: calibrate, find candidates,
// extract their sequences, verify each by reverse search, resolve
// co-orthologs, write.
type Driver struct {
	Calibrator *Calibrator
	Source     CandidateSource
	Extractor  Extractor
	Validator  *Validator
	Resolver   *Resolver
	Options    Options

	// Log gets progress. Discarded if nil
	Log *log.Logger
}

// Run searches each miRNA in order. A failure in one miRNA (or one
// candidate) is logged and recorded in the report without stopping the
// others. The returned error is only set when ctx is done.
func (d *Driver) Run(ctx context.Context, mirnas []Mirna) (Report, error) {
	report := Report{
		Query:   d.Options.Query,
		Started: now(),
	}

	for _, m := range mirnas {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Mirnas = append(report.Mirnas, d.search(ctx, m))
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	report.Finished = now()
	return report, nil
}

// Dir is the directory a miRNA's files are written to.
func (d *Driver) Dir(m Mirna) string {
	if d.Options.Shared {
		return d.Options.Output
	}
	return filepath.Join(d.Options.Output, m.Name)
}

// search runs the full search for one miRNA.
func (d *Driver) search(ctx context.Context, m Mirna) MirnaResult {
	res := MirnaResult{Name: m.Name}
	fail := func(status Status, err error) MirnaResult {
		d.logger().Printf("# Search for %s stopped: %v\n", m.Name, err)
		res.Status = status
		res.Error = err.Error()
		return res
	}

	m, err := d.Calibrator.Calibrate(ctx, m)
	if err != nil {
		return fail(StatusSkipped, err)
	}
	res.Bit = m.Bit

	dir := d.Dir(m)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fail(StatusFailed, err)
	}

	loci, err := d.Source.Candidates(ctx, m)
	if err != nil {
		return fail(StatusFailed, err)
	}
	res.Hits = len(loci)
	if len(loci) == 0 {
		d.logger().Printf("# No hits found for %s.\n", m.Name)
		res.Status = StatusNoHits
		return res
	}

	if d.Options.MaxHits > 0 && len(loci) > d.Options.MaxHits {
		d.logger().Printf("# Maximum CMsearch hits reached. Restricting to best %d hits\n", d.Options.MaxHits)
		loci = Truncate(loci, d.Options.MaxHits)
	}

	candidates, err := d.extract(ctx, loci)
	if err != nil {
		return fail(StatusFailed, err)
	}
	res.Candidates = len(candidates)
	d.logger().Printf("# Covariance model search successful, found %d ortholog candidate(s).\n", len(candidates))
	d.logger().Println("# Evaluating candidates.")

	var accepted []Ortholog
	for _, c := range candidates {
		outcome, err := d.Validator.Validate(ctx, m, c, dir)
		if err != nil {
			d.logger().Printf("# Rejecting %s: %v\n", c.ID, err)
			continue
		}
		if outcome == Accepted {
			accepted = append(accepted, Ortholog{Locus: c.Locus, Seq: c.Seq, Query: d.Options.Query})
		}
	}
	// a cancelled search looks like rejected candidates
	if err := ctx.Err(); err != nil {
		return fail(StatusFailed, err)
	}

	res.Accepted = len(accepted)
	if len(accepted) == 0 {
		d.logger().Printf("# None of the candidates for %s could be verified.\n", m.Name)
		res.Status = StatusUnverified
		return res
	}

	verified := d.verify(ctx, m, accepted)
	res.Verified = len(verified)

	path := OutputPath(dir, m.Name)
	if err := WriteOrthologs(path, verified); err != nil {
		return fail(StatusFailed, err)
	}
	res.Output = path
	res.Status = StatusVerified

	d.logger().Printf("# Finished ortholog search for %s.\n", m.Name)
	return res
}

// extract pairs each locus with its sequence, dropping (and logging) loci
// that couldn't be extracted.
func (d *Driver) extract(ctx context.Context, loci []Locus) ([]Candidate, error) {
	seqs, err := d.Extractor.Extract(ctx, loci)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(loci))
	for _, l := range loci {
		seq, ok := seqs[l.ID]
		if !ok || seq == "" {
			d.logger().Printf("# Failed to extract sequence of %s at %s:%d-%d\n", l.ID, l.Chromosome, l.Start, l.End)
			continue
		}
		candidates = append(candidates, Candidate{Locus: l, Seq: seq})
	}
	return candidates, nil
}

// verify resolves co-orthologs when more than one candidate was accepted.
func (d *Driver) verify(ctx context.Context, m Mirna, accepted []Ortholog) []Ortholog {
	if len(accepted) == 1 {
		d.logger().Println("# ncOrtho found 1 verified ortholog.")
		return accepted
	}

	d.logger().Printf("# ncOrtho found %d potential co-orthologs.\n", len(accepted))
	d.logger().Println("# Evaluating distance between candidates to verify co-orthologs")

	r := d.Resolver
	if r == nil {
		r = &Resolver{Log: d.Log}
	}
	verified := r.Resolve(ctx, m, accepted)
	d.logger().Printf("# ncOrtho found %d verified co-ortholog(s).\n", len(verified))
	return verified
}

func (d *Driver) logger() *log.Logger {
	if d.Log == nil {
		d.Log = log.New(io.Discard, "", 0)
	}
	return d.Log
}

func now() string {
	return time.Now().Format("2006/01/02 15:04:05")
}
