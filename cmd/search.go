package cmd

import (
	"github.com/jjtimmons/ncortho/config"
	"github.com/jjtimmons/ncortho/internal/app"
	"github.com/spf13/cobra"
)

// searchCmd is for the ortholog search of every miRNA
var searchCmd = &cobra.Command{
	Use:                        "search",
	Short:                      "Search the query genome for orthologs of the reference miRNAs",
	PreRun:                     bindFlags,
	Run:                        app.SearchCmd,
	SuggestionsMinimumDistance: 2,
	Long: `Search the query genome for orthologs of the reference miRNAs.

For each miRNA with a covariance model:

1. Score the miRNA's precursor against its own model. That score is the
   reference for the search's score cutoff
2. Search the query genome (or the regions of it a blastn search of the
   precursor hits, with --heuristic) with the model
3. Search each candidate back against the reference genome. Candidates whose
   best hit is the miRNA's own locus are orthologs
4. Collapse orthologs that lie within --coortholog-distance of one another

Orthologs are written to <output>/<queryname>/[<mirna>/]<mirna>_orthologs.fa
and a summary of the run to ncortho_report.yaml.`,
	Aliases: []string{"run"},
}

func init() {
	config.AddFlags(searchCmd.Flags())

	RootCmd.AddCommand(searchCmd)
}
