package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	versioncollector "github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/spf13/cobra"

	"github.com/openshift-assisted/ansible-receipts/internal/channel"
	"github.com/openshift-assisted/ansible-receipts/internal/common"
	"github.com/openshift-assisted/ansible-receipts/internal/config"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
	"github.com/openshift-assisted/ansible-receipts/internal/factory"
	"github.com/openshift-assisted/ansible-receipts/internal/log"
	"github.com/openshift-assisted/ansible-receipts/internal/run"
	"github.com/openshift-assisted/ansible-receipts/pkg/pipeline"
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect events of every producer until the run completes, then write the receipts",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := setup("collect", cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		logger := log.Logger()

		// Set max procs based on cpu limits
		err = common.SetMaxProcs()
		if err != nil {
			return err
		}

		// Set max memory
		err = common.SetMemLimit()
		if err != nil {
			return err
		}

		// Listen to sigterm and interrupt signals
		ctx := common.SetupSignalHandler(cmd.Context())

		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			versioncollector.NewCollector("receipts"),
		)

		// Serve metrics
		if conf.Metrics.Port != 0 {
			server := factory.CreatePrometheusServer(conf.Metrics, registry)

			go func() {
				serveErr := server.ListenAndServe()
				if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
					logger.Error(serveErr, "metrics server stopped")
				}
			}()

			defer release(conf.GracefulDuration, server.Shutdown)
		}

		// Create pipeline
		controller, closeFuncs, err := createController(ctx, *conf, registry)
		defer release(conf.GracefulDuration, closeFuncs...)

		if err != nil {
			return err
		}

		// Start pipeline
		logger.Info("Collecting run", "run", conf.Run.ID, "mode", conf.Run.Mode, "transport", conf.Transport.Type)

		var receipts entity.Aggregate

		switch conf.Run.Mode {
		case config.RunModeLocal:
			receipts, err = controller.RunLocal(ctx)
		default:
			receipts, err = controller.Run(ctx)
		}

		if err != nil {
			return fmt.Errorf("run %s failed: %w", conf.Run.ID, err)
		}

		logger.Info("Run collected", "run", conf.Run.ID, "hosts", receipts.Hosts())

		return nil
	},
}

func createController(ctx context.Context, conf config.Config, registry *prometheus.Registry) (*run.Controller, []common.CloseFunc, error) {
	logger := log.Logger()
	closeFuncs := []common.CloseFunc{}

	inbound, closeChannel, err := factory.CreateChannel(ctx, conf, factory.SideReceive)
	if err != nil {
		return nil, closeFuncs, fmt.Errorf("failed to create channel: %w", err)
	}

	closeFuncs = append(closeFuncs, closeChannel)

	dlq, err := factory.CreateDeadLetterQueue(ctx, conf)
	if err != nil {
		return nil, closeFuncs, err
	}

	errProcessing, err := factory.DecorateErrorProcessing(dlq, logger.WithName("errors"), registry, conf.Retry)
	if err != nil {
		return nil, closeFuncs, fmt.Errorf("failed to create error processing: %w", err)
	}

	writer, closeWriters, err := factory.CreateReceiptWriter(ctx, conf, logger.WithName("writer"))
	closeFuncs = append(closeFuncs, closeWriters...)

	if err != nil {
		return nil, closeFuncs, fmt.Errorf("failed to create receipt writer: %w", err)
	}

	gauge, err := factory.CreateCollectorGauge(registry)
	if err != nil {
		return nil, closeFuncs, err
	}

	clock := clockwork.NewRealClock()
	receiver := channel.NewTolerantReceiver(inbound, errProcessing).WithLogger(logger)

	ret := run.NewController(receiver, writer).
		WithLogger(logger).
		WithBufferGauge(gauge).
		WithFoldDecorator(func(p pipeline.Processing[entity.Event]) (pipeline.Processing[entity.Event], error) {
			return factory.DecorateFoldProcessing(p, registry, clock)
		})

	return ret, closeFuncs, nil
}

func init() {
	rootCmd.AddCommand(collectCmd)
}
