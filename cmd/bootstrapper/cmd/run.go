package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mauiiK/cosmos-p2p-bootstrapper/bootstrap"
)

func RunCmd() *cobra.Command {
	var skip []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "run every bootstrap step in order",
		Long: fmt.Sprintf(`Runs the steps %s in order and stops at the first failure.

Example:
		$ bootstrapper run --skip deps,build
`, strings.Join(bootstrap.StepNames, ", ")),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSteps(cmd, skip)
		},
	}
	cmd.Flags().StringSliceVar(&skip, "skip", nil, "steps to skip")
	return cmd
}
