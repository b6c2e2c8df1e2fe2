package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openshift-assisted/ansible-receipts/internal/config"
)

func TestValkeyChannelKeyIsScopedToTheRun(t *testing.T) {
	conf := config.Config{
		Run:       config.Run{ID: "run-2"},
		Transport: config.Transport{Valkey: config.ValkeyChannel{Key: "receipts:events"}},
	}

	assert.Equal(t, "receipts:events:run-2", ValkeyChannelKey(conf))

	conf.Run.ID = "run-3"
	assert.Equal(t, "receipts:events:run-3", ValkeyChannelKey(conf))
}
