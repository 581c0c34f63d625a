package ortho

import (
	"context"
	"io"
	"log"
)

// DistanceEvaluator decides whether two accepted loci are calls of the same
// locus (redundant) or independent co-orthologs.
type DistanceEvaluator interface {
	Redundant(a, b Locus) bool
}

// GenomicDistance treats loci on the same chromosome as redundant when fewer
// than Min bp separate them. Overlapping loci are always redundant.
type GenomicDistance struct {
	Min int
}

// Redundant implements DistanceEvaluator.
func (g GenomicDistance) Redundant(a, b Locus) bool {
	gap := a.Gap(b)
	if gap < 0 {
		return false
	}
	return gap == 0 || gap < g.Min
}

// Resolver collapses redundant calls among a miRNA's accepted candidates.
type Resolver struct {
	// Distance decides redundancy. Defaults to overlap only
	Distance DistanceEvaluator

	// Log gets progress. Discarded if nil
	Log *log.Logger
}

// Resolve walks the accepted orthologs best first and keeps each one that
// isn't redundant with an ortholog already kept. Order is preserved.
func (r *Resolver) Resolve(ctx context.Context, m Mirna, accepted []Ortholog) []Ortholog {
	dist := r.Distance
	if dist == nil {
		dist = GenomicDistance{}
	}

	var kept []Ortholog
	for _, o := range accepted {
		redundant := false
		for _, k := range kept {
			if dist.Redundant(k.Locus, o.Locus) {
				r.logger().Printf("# %s is redundant with %s\n", o.ID, k.ID)
				redundant = true
				break
			}
		}
		if !redundant {
			kept = append(kept, o)
		}
	}

	return kept
}

func (r *Resolver) logger() *log.Logger {
	if r.Log == nil {
		r.Log = log.New(io.Discard, "", 0)
	}
	return r.Log
}
