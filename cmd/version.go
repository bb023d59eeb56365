package cmd

import (
	"fmt"

	"github.com/chukul/ec2provision/internal"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s version %s\n", internal.AppName, internal.CurrentVersion)

		// Force check for updates
		latest, url, err := internal.FetchLatestVersion(cmd.Context())
		if err != nil {
			fmt.Fprintf(out, "Unable to check for updates: %v\n", err)
			return
		}

		if internal.IsNewer(latest, internal.CurrentVersion) {
			fmt.Fprintf(out, "\n💡 Update available: %s → %s\n", internal.CurrentVersion, latest)
			fmt.Fprintf(out, "   Download: %s\n", url)
		} else {
			fmt.Fprintln(out, "✅ You're running the latest version")
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
