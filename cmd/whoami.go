package cmd

import (
	"fmt"

	"github.com/chukul/ec2provision/internal"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account and principal the credentials resolve to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd.Context())
		if err != nil {
			return err
		}
		id, err := internal.CallerIdentity(cmd.Context(), s)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", dimStyle.Render("Account:"), id.Account)
		fmt.Fprintf(out, "%s %s\n", dimStyle.Render("ARN:    "), id.Arn)
		fmt.Fprintf(out, "%s %s\n", dimStyle.Render("UserID: "), id.UserID)
		fmt.Fprintf(out, "%s %s\n", dimStyle.Render("Region: "), s.Region)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
