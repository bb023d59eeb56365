package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chukul/ec2provision/internal"
	"github.com/chukul/ec2provision/internal/ui"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	noSpinner bool

	appCfg  internal.Config
	logger  *log.Logger
	started bool
)

// logOut is the logger's writer; the spinner holds it while a step runs.
var logOut = ui.NewHoldWriter(os.Stderr)

// flagKeys maps every config-backed flag to its viper key.
var flagKeys = map[string]string{
	"region":         internal.KeyRegion,
	"profile":        internal.KeyProfile,
	"log-level":      internal.KeyLogLevel,
	"retry-attempts": internal.KeyRetryAttempts,
	"retry-delay":    internal.KeyRetryDelay,
	"image-id":       internal.KeyImageID,
	"sg-name":        internal.KeySGName,
	"rule":           internal.KeyRules,
	"key-name":       internal.KeyKeyName,
	"key-path":       internal.KeyKeyPath,
	"keychain":       internal.KeyKeychain,
	"preview":        internal.KeyPreview,
	"strict":         internal.KeyStrict,
	"output":         internal.KeyOutput,
}

func printLogo() {
	// Gradient colors (Blue -> Purple -> Pink)
	// Blue: 0, 176, 255
	// Purple: 170, 0, 255
	// Pink: 255, 0, 128

	lines := []string{
		`  ┌─┐┌─┐┌─┐  ┌─┐┬─┐┌─┐┬  ┬┬┌─┐┬┌─┐┌┐┌`,
		`  ├┤ │  ┌─┘  ├─┘├┬┘│ │└┐┌┘│└─┐││ ││││`,
		`  └─┘└─┘└─┘  ┴  ┴└─└─┘ └┘ ┴└─┘┴└─┘┘└┘`,
	}

	fmt.Fprintln(os.Stderr)
	for _, line := range lines {
		runes := []rune(line)
		for i, char := range runes {
			ratio := float64(i) / float64(len(runes))

			var r, g, b int
			if ratio < 0.5 {
				// Blue to Purple
				subRatio := ratio * 2
				r = int(170 * subRatio)
				g = int(176 * (1 - subRatio))
				b = 255
			} else {
				// Purple to Pink
				subRatio := (ratio - 0.5) * 2
				r = int(170*(1-subRatio) + 255*subRatio)
				g = 0
				b = int(255*(1-subRatio) + 128*subRatio)
			}

			fmt.Fprintf(os.Stderr, "\x1b[38;2;%d;%d;%dm%c\x1b[0m", r, g, b, char)
		}
		fmt.Fprintln(os.Stderr)
	}
	fmt.Fprintln(os.Stderr, "\x1b[1m  Idempotent setup of baseline EC2 resources: security group, ingress rules, key pair\x1b[0m")
	fmt.Fprintln(os.Stderr)
}

var rootCmd = &cobra.Command{
	Use:           internal.AppName,
	Short:         "ec2provision sets up a security group and key pair for EC2 instances",
	Long:          `ec2provision lists availability zones and the course AMI, then makes sure the assignment security group (with SSH and HTTP open) and key pair exist, saving a newly created private key locally.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v, err := internal.NewViper(cfgFile)
		if err != nil {
			return err
		}
		for name, key := range flagKeys {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return err
				}
			}
		}

		appCfg, err = internal.LoadConfig(v)
		if err != nil {
			return err
		}
		logger, err = internal.NewLogger(logOut, appCfg.LogLevel)
		if err != nil {
			return err
		}
		started = true

		// Check for updates on every command (non-blocking)
		internal.CheckForUpdates(logger)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default ~/.ec2provision/config.yaml)")
	pf.String("region", internal.DefaultRegion, "AWS region")
	pf.String("profile", "", "Shared config profile (default: ambient credentials)")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.Uint("retry-attempts", 1, "Attempts per API call; throttling errors are retried with exponential backoff")
	pf.Duration("retry-delay", time.Second, "Initial backoff between attempts")
	pf.BoolVar(&noSpinner, "no-spinner", false, "Plain log output even on a terminal")
}

// Execute runs the CLI
func Execute() {
	if len(os.Args) <= 1 || (len(os.Args) > 1 && os.Args[1] == "help") {
		printLogo()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	code := 1
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
	}
	if started {
		_ = logOut.Release()
		logger.Error("error: " + err.Error())
	} else {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(code)
}
