package livecompose

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/railwayapp/livecompose/internal/export"
)

var (
	servicesDeclarations declarationFlags
	servicesFormat       string
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "Print the services the project resolves to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.ForFormat(servicesFormat)
		if err != nil {
			return err
		}

		p, err := assemble(cmd.Context(), &servicesDeclarations, parseImageTag)
		if err != nil {
			return err
		}

		out, err := exporter.Export(p.Describe())
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

func init() {
	servicesDeclarations.register(servicesCmd, imageTagHelp)
	servicesCmd.Flags().StringVarP(&servicesFormat, "format", "o", "json", "output format (json, yaml)")
}
