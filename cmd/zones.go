package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/chukul/ec2provision/internal"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "List availability zones in the region",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd.Context())
		if err != nil {
			return err
		}

		zones, err := internal.ListAvailabilityZones(cmd.Context(), s)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%-20s %-12s %s", "ZONE", "STATE", "REGION")))
		for _, z := range zones {
			state := z.State
			if state == "available" {
				state = okStyle.Render(fmt.Sprintf("%-12s", state))
			} else {
				state = fmt.Sprintf("%-12s", state)
			}
			fmt.Fprintf(out, "%-20s %s %s\n", z.Name, state, z.Region)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(zonesCmd)
}
