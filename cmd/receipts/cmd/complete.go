package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openshift-assisted/ansible-receipts/internal/common"
	"github.com/openshift-assisted/ansible-receipts/internal/factory"
	"github.com/openshift-assisted/ansible-receipts/internal/log"
	"github.com/openshift-assisted/ansible-receipts/internal/run"
)

// completeCmd represents the complete command
var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Signal the collector that every producer of the run is finished",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := setup("complete", cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		ctx := common.SetupSignalHandler(cmd.Context())

		sender, closeChannel, err := factory.CreateChannel(ctx, *conf, factory.SideSend)
		if err != nil {
			return fmt.Errorf("failed to create channel: %w", err)
		}
		defer release(conf.GracefulDuration, closeChannel)

		err = run.Complete(ctx, sender)
		if err != nil {
			return err
		}

		log.Logger().V(1).Info("Run completion signalled", "run", conf.Run.ID)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(completeCmd)
}
