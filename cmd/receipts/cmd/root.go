package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/common/version"
	"github.com/spf13/cobra"

	"github.com/openshift-assisted/ansible-receipts/internal/common"
	"github.com/openshift-assisted/ansible-receipts/internal/config"
	"github.com/openshift-assisted/ansible-receipts/internal/log"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "receipts",
	Short:         "Collect per-host receipts of concurrent playbook runs",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
}

// setup parses the configuration and initializes the logger on output.
func setup(command string, output io.Writer) (*config.Config, error) {
	conf, err := config.Parse(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", cfgFile, err)
	}

	// Init logger
	err = log.InitWithOutput(conf.Logs, output)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	logger := log.Logger()

	// Dump generic information
	logger.V(1).Info("Starting receipts "+command,
		"version", version.Info(),
		"buildContext", version.BuildContext(),
	)
	logger.V(1).Info("Using config", "config", fmt.Sprintf("%+v", conf))

	return conf, nil
}

// release calls every close function, bounded by the graceful duration.
func release(gracefulDuration time.Duration, closeFuncs ...common.CloseFunc) {
	logger := log.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), gracefulDuration)
	defer cancel()

	for _, closeFunc := range closeFuncs {
		if closeFunc == nil {
			continue
		}

		err := closeFunc(ctx)
		if err != nil {
			logger.Error(err, "failed to release client")
		}
	}
}
