package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timur-mustafin/gamified-task-manager/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Print(version.String("api"))
	},
}
