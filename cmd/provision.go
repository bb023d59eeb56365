package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/chukul/ec2provision/internal"
	"github.com/chukul/ec2provision/internal/ui"
	"github.com/spf13/cobra"
)

var provisionYes bool

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "List zones and images, then ensure the security group, ingress rules and key pair",
	Example: `  ec2provision provision
  ec2provision provision --preview
  ec2provision provision --region eu-west-1 --key-path ~/.ssh/assignment4.pem --yes
  ec2provision provision --rule tcp:22:10.0.0.0/8 --rule tcp:443:0.0.0.0/0 --output json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := internal.ValidateKeyPath(appCfg.KeyPath); err != nil {
			return err
		}
		if keychainUnavailable(appCfg) {
			logger.Warn("the keychain is only available on macOS; key material will only be written to the file", "path", appCfg.KeyPath)
		}

		if !appCfg.Preview && !provisionYes && isInteractive() {
			prompt := fmt.Sprintf("Create security group %q and key pair %q in %s if missing?",
				appCfg.SecurityGroupName, appCfg.KeyPairName, appCfg.Region)
			ok, err := ui.Confirm(os.Stderr, prompt)
			if err != nil {
				return err
			}
			if !ok {
				logger.Info("aborted")
				return nil
			}
		}

		s, err := newSession(ctx)
		if err != nil {
			return err
		}

		p := internal.NewPipeline(s, appCfg, logger)
		p.Runner = stepRunner()
		report, err := p.Run(ctx)
		if err != nil {
			if report != nil && report.KeyPair.Created {
				logger.Warn("key pair was created before the run stopped", "name", report.KeyPair.Name, "id", report.KeyPair.ID, "path", appCfg.KeyPath)
			}
			return err
		}

		if err := internal.WriteReport(cmd.OutOrStdout(), report, appCfg.Output); err != nil {
			return err
		}

		if appCfg.Strict && report.Degraded() {
			return &exitError{code: 2, err: errors.New("provisioning finished with suppressed failures")}
		}
		return nil
	},
}

func init() {
	f := provisionCmd.Flags()
	f.Bool("strict", false, "Exit with status 2 when ingress or key persistence did not succeed")
	f.StringP("output", "o", "text", "Report format: text, json, yaml")
	f.BoolVarP(&provisionYes, "yes", "y", false, "Skip the confirmation prompt")
	addResourceFlags(provisionCmd, true, true)
	rootCmd.AddCommand(provisionCmd)
}

// addResourceFlags registers the flags naming the resources a command
// touches. They are bound to config keys in the root pre-run.
func addResourceFlags(cmd *cobra.Command, securityGroup, keyPair bool) {
	f := cmd.Flags()
	f.Bool("preview", false, "Describe what would be created without creating anything")
	if securityGroup {
		f.String("image-id", internal.DefaultImageID, "AMI to look up")
		f.String("sg-name", internal.DefaultSecurityGroupName, "Security group name")
		f.StringSlice("rule", internal.DefaultRules, "Ingress rule proto:port:cidr (repeatable)")
	}
	if keyPair {
		f.String("key-name", internal.DefaultKeyPairName, "Key pair name")
		f.String("key-path", "", "Where to write new private key material (default ~/Documents/<key-name>.pem)")
		f.Bool("keychain", false, "Also store new private key material in the login keychain (macOS)")
	}
}
