package genome

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Region is a 1-based, inclusive stretch of a chromosome.
type Region struct {
	Chromosome string
	Start      int
	End        int
}

// ID encodes the region as chrom:start-end. It's the FASTA ID of the region
// when written with WriteRegions.
func (r Region) ID() string {
	return fmt.Sprintf("%s:%d-%d", r.Chromosome, r.Start, r.End)
}

// Widen pads the region by n bp on both sides, stopping at the first base.
func (r Region) Widen(n int) Region {
	r.Start -= n
	if r.Start < 1 {
		r.Start = 1
	}
	r.End += n
	return r
}

// ParseRegion decodes a region from its ID. The chromosome name may itself
// contain colons.
func ParseRegion(id string) (Region, error) {
	colon := strings.LastIndex(id, ":")
	if colon < 1 {
		return Region{}, fmt.Errorf("region %q: missing chromosome", id)
	}

	bounds := strings.SplitN(id[colon+1:], "-", 2)
	if len(bounds) != 2 {
		return Region{}, fmt.Errorf("region %q: expected start-end", id)
	}
	start, err := strconv.Atoi(bounds[0])
	if err != nil {
		return Region{}, fmt.Errorf("region %q: bad start: %w", id, err)
	}
	end, err := strconv.Atoi(bounds[1])
	if err != nil {
		return Region{}, fmt.Errorf("region %q: bad end: %w", id, err)
	}
	if start < 1 || start > end {
		return Region{}, fmt.Errorf("region %q: bad range", id)
	}

	return Region{Chromosome: id[:colon], Start: start, End: end}, nil
}

// Merge sorts regions and joins those that overlap or touch.
func Merge(regions []Region) []Region {
	if len(regions) == 0 {
		return nil
	}

	sorted := append([]Region(nil), regions...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Chromosome != sorted[j].Chromosome {
			return sorted[i].Chromosome < sorted[j].Chromosome
		}
		return sorted[i].Start < sorted[j].Start
	})

	merged := []Region{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.Chromosome == last.Chromosome && r.Start <= last.End+1 {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// WriteRegions cuts the regions out of the genome at path and writes them to
// out as FASTA, each under its ID. Region ends past the chromosome end are
// clipped before the ID is made. The regions written are returned; those on
// chromosomes missing from the genome are dropped.
func WriteRegions(ctx context.Context, path string, regions []Region, out string) ([]Region, error) {
	byChrom := make(map[string][]Region)
	for _, r := range regions {
		byChrom[r.Chromosome] = append(byChrom[r.Chromosome], r)
	}

	var (
		written []Region
		records []Record
	)
	err := Scan(ctx, path, func(rec Record) error {
		for _, r := range byChrom[rec.ID] {
			if r.End > len(rec.Seq) {
				r.End = len(rec.Seq)
			}
			seq, ok := slice(rec.Seq, r.Start, r.End)
			if !ok {
				continue
			}
			written = append(written, r)
			records = append(records, Record{ID: r.ID(), Seq: seq})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := Write(out, records...); err != nil {
		return nil, fmt.Errorf("failed to write regions to %s: %w", out, err)
	}
	return written, nil
}
