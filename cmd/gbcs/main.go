// Command gbcs runs the German Breast Cancer Study survival analysis:
// Cox proportional hazards modeling, a proportional hazards assumption
// test, a Weibull accelerated failure time comparison, and the residual
// and survival curve plots.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/niecestroa/survival-analysis-german-breast-cancer/analysis"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {

	root := &cobra.Command{
		Use:           "gbcs",
		Short:         "Survival analysis of the German Breast Cancer Study data",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func newRunCmd() *cobra.Command {

	var (
		dataPath string
		outDir   string
		cfgPath  string
		quiet    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the analysis workflow",
		RunE: func(cmd *cobra.Command, args []string) error {

			cfg := analysis.DefaultConfig()
			if cfgPath != "" {
				var err error
				cfg, err = analysis.LoadConfig(cfgPath)
				if err != nil {
					return err
				}
			}
			if dataPath != "" {
				cfg.DataPath = dataPath
			}
			if cmd.Flags().Changed("out") || cfg.OutDir == "" {
				cfg.OutDir = outDir
			}

			logger := log.New(cmd.ErrOrStderr(), "gbcs: ", log.LstdFlags)
			if quiet {
				logger = nil
			}

			return analysis.NewPipeline(cfg, logger, cmd.OutOrStdout()).Run()
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "path to the GBCS CSV file")
	cmd.Flags().StringVar(&outDir, "out", "out", "directory for plots and model summaries")
	cmd.Flags().StringVar(&cfgPath, "config", "", "optional YAML config file")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress stage logging")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "gbcs "+version)
		},
	}
}
