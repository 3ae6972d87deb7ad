package cmd

import (
	"github.com/spf13/cobra"

	"github.com/delarsify/sanjeevani/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize sanjeevani configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the server and writes the config file (default .sanjeevani.yml).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
