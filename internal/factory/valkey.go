package factory

import (
	"context"
	"fmt"
	"os"

	"github.com/valkey-io/valkey-go"

	"github.com/openshift-assisted/ansible-receipts/internal/common"
	"github.com/openshift-assisted/ansible-receipts/internal/config"
)

// CreateValkeyClient connects and pings the server, so that a wrong address fails before any event is sent.
func CreateValkeyClient(ctx context.Context, conf config.Valkey) (valkey.Client, common.CloseFunc, error) {
	option := valkey.ClientOption{
		InitAddress: []string{conf.URL},
		Password:    conf.Creds.Password,
		SelectDB:    conf.DB,
		ClientName:  valkeyClientName(),
		// Nothing is read twice, client side caching only costs tracking on the server
		DisableCache: true,
	}

	ret, err := valkey.NewClient(option)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create valkey client for %s: %w", conf.URL, err)
	}

	ping := ret.B().Ping().Build()

	err = ret.Do(ctx, ping).Error()
	if err != nil {
		ret.Close()

		return nil, nil, fmt.Errorf("failed to ping valkey %s: %w", conf.URL, err)
	}

	shutdown := func(context.Context) error {
		ret.Close()

		return nil
	}

	return ret, shutdown, nil
}

func valkeyClientName() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "receipts"
	}

	return fmt.Sprintf("receipts-%s-%d", hostname, os.Getpid())
}
