package cmd

import (
	"fmt"

	"github.com/chukul/ec2provision/internal"
	"github.com/spf13/cobra"
)

var ensureSGCmd = &cobra.Command{
	Use:   "ensure-sg [name] [proto:port:cidr...]",
	Short: "Create the security group if missing and authorize its ingress rules",
	Example: `  ec2provision ensure-sg
  ec2provision ensure-sg web tcp:80:0.0.0.0/0 tcp:443:0.0.0.0/0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, rules, err := securityGroupArgs(args, appCfg)
		if err != nil {
			return err
		}

		s, err := newSession(cmd.Context())
		if err != nil {
			return err
		}

		ref, err := internal.EnsureSecurityGroup(cmd.Context(), s, logger, internal.EnsureSecurityGroupInput{
			Name:        name,
			Description: appCfg.SecurityGroupDescription,
			Preview:     appCfg.Preview,
		})
		if err != nil {
			return err
		}

		outcome := internal.AuthorizeIngress(cmd.Context(), s, logger, ref.ID, rules, appCfg.Preview)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ref.Name, ref.ID)
		if !outcome.OK {
			logger.Warn("ingress not authorized", "reason", outcome.Reason)
		}
		return nil
	},
}

// securityGroupArgs resolves the group name and rules from positional
// arguments, falling back to cfg for whichever is missing.
func securityGroupArgs(args []string, cfg internal.Config) (string, []internal.IngressRule, error) {
	name := cfg.SecurityGroupName
	rules := cfg.Rules
	if len(args) > 0 {
		name = args[0]
	}
	if len(args) > 1 {
		parsed, err := internal.ParseIngressRules(args[1:])
		if err != nil {
			return "", nil, err
		}
		rules = parsed
	}
	return name, rules, nil
}

func init() {
	addResourceFlags(ensureSGCmd, true, false)
	rootCmd.AddCommand(ensureSGCmd)
}
