package cmd

import (
	"runtime"

	"github.com/jjtimmons/ncortho/internal/app"
	"github.com/spf13/cobra"
)

// calibrateCmd prints the reference bit scores without searching
var calibrateCmd = &cobra.Command{
	Use:                        "calibrate",
	Short:                      "Print the score of each miRNA against its own covariance model",
	PreRun:                     bindFlags,
	Run:                        app.CalibrateCmd,
	SuggestionsMinimumDistance: 2,
	Long: `Print the score of each miRNA's precursor against its own covariance model.

The search drops candidates scoring below --cm-cutoff times this score. A
score of 0 means the model didn't find its own precursor and the cutoff is
off for that miRNA.`,
}

func init() {
	calibrateCmd.Flags().StringP("models", "m", "", "directory of covariance models (.cm)")
	calibrateCmd.Flags().StringP("ncrna", "n", "", "tab separated miRNA data file")
	calibrateCmd.Flags().IntP("cpu", "c", runtime.NumCPU(), "number of threads")
	calibrateCmd.Flags().String("cmsearch", "cmsearch", "cmsearch executable")

	RootCmd.AddCommand(calibrateCmd)
}
