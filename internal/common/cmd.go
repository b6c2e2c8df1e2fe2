package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/dustin/go-humanize"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/openshift-assisted/ansible-receipts/internal/log"
)

const (
	// default ratio from the memlimit pkg
	memLimitRatio = 0.9
)

// CloseFunc releases a client created by the factory.
type CloseFunc func(context.Context) error

func NoopClose(context.Context) error {
	return nil
}

// SetupSignalHandler cancels the returned context on the first SIGINT/SIGTERM and exits on the second one.
func SetupSignalHandler(ctx context.Context) context.Context {
	stopped, stop := context.WithCancel(ctx)

	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger := log.Logger().WithName("signal")

		sig := <-signals
		logger.V(1).Info("Stopping, buffered events and the receipts artifact will be lost", "signal", sig.String())
		stop()

		sig = <-signals
		logger.Info("Second stop signal, exiting now", "signal", sig.String())
		os.Exit(1)
	}()

	return stopped
}

func SetMaxProcs() error {
	logger := log.Logger().WithName("maxprocs")

	// maxprocs logs printf style, logr expects a message then key/value pairs
	printf := func(format string, args ...interface{}) {
		logger.V(1).Info(fmt.Sprintf(format, args...))
	}

	if _, err := maxprocs.Set(maxprocs.Logger(printf)); err != nil {
		return fmt.Errorf("failed to set max procs: %w", err)
	}

	return nil
}

func SetMemLimit() error {
	logger := log.Logger()

	limit, err := memlimit.SetGoMemLimit(memLimitRatio)
	if isUnlimited(err) {
		// no cgroup limit outside a container
		logger.V(1).Info("Go memlimit left unset", "reason", err.Error())

		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to set go mem limit: %w", err)
	}

	logger.V(1).Info("Go memlimit configured", "ratio", memLimitRatio, "limit", humanize.IBytes(uint64(limit)))

	return nil
}

func isUnlimited(err error) bool {
	return errors.Is(err, memlimit.ErrNoLimit) ||
		errors.Is(err, memlimit.ErrNoCgroup) ||
		errors.Is(err, memlimit.ErrCgroupsNotSupported)
}
