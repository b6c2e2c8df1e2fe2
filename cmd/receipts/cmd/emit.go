package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/openshift-assisted/ansible-receipts/internal/common"
	"github.com/openshift-assisted/ansible-receipts/internal/factory"
	"github.com/openshift-assisted/ansible-receipts/internal/log"
	"github.com/openshift-assisted/ansible-receipts/internal/processing"
	"github.com/openshift-assisted/ansible-receipts/internal/producer"
	"github.com/openshift-assisted/ansible-receipts/pkg/pipeline"
)

var errNotFinished = errors.New("input ended before playbook_on_stats")

var producerID string

// emitCmd represents the emit command
var emitCmd = &cobra.Command{
	Use:   "emit",
	Short: "Read callback notifications on stdin and send them as events to the collector",
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout is left to the automation engine
		conf, err := setup("emit", cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		logger := log.Logger().WithValues("run", conf.Run.ID)

		ctx := common.SetupSignalHandler(cmd.Context())

		if producerID == "" {
			producerID = defaultProducerID()
		}

		sender, closeChannel, err := factory.CreateChannel(ctx, *conf, factory.SideSend)
		if err != nil {
			return fmt.Errorf("failed to create channel: %w", err)
		}
		defer release(conf.GracefulDuration, closeChannel)

		dlq, err := factory.CreateDeadLetterQueue(ctx, *conf)
		if err != nil {
			return err
		}

		// emit is short lived, its metrics are only exposed through the logs
		errProcessing, err := factory.DecorateErrorProcessing(dlq, logger.WithName("errors"), prometheus.NewRegistry(), conf.Retry)
		if err != nil {
			return fmt.Errorf("failed to create error processing: %w", err)
		}

		p := producer.New(producerID, sender).WithLogger(logger)
		callbacks := processing.NewCallbacks(p).WithLogger(logger)

		handler := pipeline.NewJSONLineHandler[processing.Notification]("stdin", callbacks, errProcessing).WithLogger(logger)

		processed, err := handler.Consume(ctx, cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to consume notifications: %w", err)
		}

		if !p.Finished() {
			return fmt.Errorf("producer %s: %w (%d notifications, %d events)", producerID, errNotFinished, processed, p.Sent())
		}

		logger.V(1).Info("Producer finished", "producer", producerID, "notifications", processed, "events", p.Sent())

		return nil
	},
}

func defaultProducerID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "producer"
	}

	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

func init() {
	emitCmd.Flags().StringVar(&producerID, "producer", "", "producer identifier, defaults to <hostname>-<pid>")

	rootCmd.AddCommand(emitCmd)
}
