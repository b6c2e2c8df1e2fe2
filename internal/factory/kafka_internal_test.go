package factory

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshift-assisted/ansible-receipts/internal/config"
)

func TestConfigureSASL(t *testing.T) {
	testcases := []struct {
		name      string
		creds     config.KafkaCreds
		enabled   bool
		mechanism sarama.SASLMechanism
		scram     bool
		fail      bool
	}{
		{name: "none"},
		{name: "plain", creds: config.KafkaCreds{Mechanism: config.SASLMechanismPlain, User: "u", Password: "p"}, enabled: true, mechanism: sarama.SASLTypePlaintext},
		{name: "scram 256", creds: config.KafkaCreds{Mechanism: config.SASLMechanismScramSHA256, User: "u", Password: "p"}, enabled: true, mechanism: sarama.SASLTypeSCRAMSHA256, scram: true},
		{name: "scram 512", creds: config.KafkaCreds{Mechanism: config.SASLMechanismScramSHA512, User: "u", Password: "p"}, enabled: true, mechanism: sarama.SASLTypeSCRAMSHA512, scram: true},
		{name: "unknown", creds: config.KafkaCreds{Mechanism: "GSSAPI"}, fail: true},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			conf := sarama.NewConfig()

			err := configureSASL(conf, tc.creds)
			if tc.fail {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.enabled, conf.Net.SASL.Enable)

			if !tc.enabled {
				return
			}

			assert.Equal(t, tc.mechanism, conf.Net.SASL.Mechanism)
			assert.Equal(t, "u", conf.Net.SASL.User)

			if tc.scram {
				require.NotNil(t, conf.Net.SASL.SCRAMClientGeneratorFunc)

				client := conf.Net.SASL.SCRAMClientGeneratorFunc()
				require.NoError(t, client.Begin("u", "p", ""))

				first, err := client.Step("")
				require.NoError(t, err)
				assert.Contains(t, first, "n=u")
				assert.False(t, client.Done())
			}
		})
	}
}

func TestKafkaOffset(t *testing.T) {
	assert.Equal(t, sarama.OffsetOldest, KafkaOffset(config.KafkaChannel{Oldest: true}))
	assert.Equal(t, sarama.OffsetNewest, KafkaOffset(config.KafkaChannel{}))
}
