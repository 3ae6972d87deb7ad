package cmd

import (
	"github.com/spf13/cobra"

	"github.com/delarsify/sanjeevani/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "sanjeevani",
	Short: "SANJEEVANI AI community health web app",
	Long: `SANJEEVANI serves the DeLARSify community health site: marketing pages,
an AI health assistant and a community feed behind sign-in. Interactive
views are rendered on the server and driven over websockets.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
