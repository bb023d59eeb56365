package cmd

import (
	"fmt"

	"github.com/chukul/ec2provision/internal"
	"github.com/spf13/cobra"
)

var ensureKeyPairCmd = &cobra.Command{
	Use:   "ensure-keypair [name]",
	Short: "Create the key pair if missing and save its private key",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appCfg
		if len(args) == 1 {
			cfg = withKeyPairName(cfg, args[0])
		}
		if err := internal.ValidateKeyPath(cfg.KeyPath); err != nil {
			return err
		}
		if keychainUnavailable(cfg) {
			logger.Warn("the keychain is only available on macOS; key material will only be written to the file", "path", cfg.KeyPath)
		}

		s, err := newSession(cmd.Context())
		if err != nil {
			return err
		}

		ref, outcomes, err := internal.EnsureKeyPair(cmd.Context(), s, logger, internal.EnsureKeyPairInput{
			Name:    cfg.KeyPairName,
			Stores:  internal.KeyStoresFor(cfg),
			Preview: cfg.Preview,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ref.Name, ref.ID, ref.Fingerprint)
		for _, o := range outcomes {
			if !o.OK {
				logger.Warn("key material not stored", "step", o.Step, "reason", o.Reason)
			}
		}
		return nil
	},
}

// withKeyPairName renames the key pair in cfg. A key path still at the
// default for the old name follows the new name.
func withKeyPairName(cfg internal.Config, name string) internal.Config {
	if cfg.KeyPath == internal.DefaultKeyPath(cfg.KeyPairName) {
		cfg.KeyPath = internal.DefaultKeyPath(name)
	}
	cfg.KeyPairName = name
	return cfg
}

func init() {
	addResourceFlags(ensureKeyPairCmd, false, true)
	rootCmd.AddCommand(ensureKeyPairCmd)
}
