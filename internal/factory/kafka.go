package factory

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/IBM/sarama"
	"github.com/xdg-go/scram"

	"github.com/openshift-assisted/ansible-receipts/internal/config"
)

var (
	scramSHA256 scram.HashGeneratorFcn = sha256.New
	scramSHA512 scram.HashGeneratorFcn = sha512.New
)

// CreateKafkaProducer creates a producer writing to the partition set on each message.
func CreateKafkaProducer(kafkaConfig config.Kafka) (sarama.SyncProducer, error) {
	conf, err := createKafkaConfig(kafkaConfig, "producer")
	if err != nil {
		return nil, err
	}

	// mandatory configuration for a SyncProducer
	conf.Producer.Return.Successes = true
	conf.Producer.Return.Errors = true

	// total order relies on a single partition chosen by the channel
	conf.Producer.Partitioner = sarama.NewManualPartitioner
	conf.Producer.RequiredAcks = sarama.WaitForAll

	ret, err := sarama.NewSyncProducer(splitURLs(kafkaConfig.Broker.URLs), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return ret, nil
}

func CreateKafkaConsumer(kafkaConfig config.Kafka) (sarama.Consumer, error) {
	conf, err := createKafkaConfig(kafkaConfig, "collector")
	if err != nil {
		return nil, err
	}

	// mandatory configuration
	conf.Consumer.Return.Errors = true

	ret, err := sarama.NewConsumer(splitURLs(kafkaConfig.Broker.URLs), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	return ret, nil
}

// KafkaOffset returns the offset the collector starts reading from.
func KafkaOffset(conf config.KafkaChannel) int64 {
	if conf.Oldest {
		return sarama.OffsetOldest
	}

	return sarama.OffsetNewest
}

func createKafkaConfig(kafkaConfig config.Kafka, role string) (*sarama.Config, error) {
	conf := sarama.NewConfig()

	// clientID
	conf.ClientID = computeClientID(role)

	// kafka version
	version, err := sarama.ParseKafkaVersion(kafkaConfig.Broker.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to parse kafka version: %w", err)
	}

	conf.Version = version

	err = configureSASL(conf, kafkaConfig.Broker.Creds)
	if err != nil {
		return nil, err
	}

	return conf, nil
}

func configureSASL(conf *sarama.Config, creds config.KafkaCreds) error {
	switch creds.Mechanism {
	case config.SASLMechanismNone:
		return nil
	case config.SASLMechanismPlain:
		conf.Net.SASL.Mechanism = sarama.SASLTypePlaintext
	case config.SASLMechanismScramSHA256:
		conf.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
		conf.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
			return &scramClient{HashGeneratorFcn: scramSHA256}
		}
	case config.SASLMechanismScramSHA512:
		conf.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
		conf.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
			return &scramClient{HashGeneratorFcn: scramSHA512}
		}
	default:
		return fmt.Errorf("unsupported sasl mechanism: %q", creds.Mechanism)
	}

	conf.Net.SASL.Enable = true
	conf.Net.SASL.User = creds.User
	conf.Net.SASL.Password = creds.Password

	return nil
}

func splitURLs(urls string) []string {
	return strings.Split(urls, ",")
}

func computeClientID(role string) string {
	prefix, err := os.Hostname()
	if err != nil {
		prefix = fmt.Sprintf("clientid-%v", role)
	}

	return fmt.Sprintf("%s-%s-%x", prefix, role, rand.Int31())
}

// scramClient implements sarama.SCRAMClient on top of xdg-go/scram.
type scramClient struct {
	*scram.Client
	*scram.ClientConversation
	scram.HashGeneratorFcn
}

func (x *scramClient) Begin(userName, password, authzID string) error {
	client, err := x.HashGeneratorFcn.NewClient(userName, password, authzID)
	if err != nil {
		return fmt.Errorf("failed to create scram client: %w", err)
	}

	x.Client = client
	x.ClientConversation = client.NewConversation()

	return nil
}

func (x *scramClient) Step(challenge string) (string, error) {
	return x.ClientConversation.Step(challenge)
}

func (x *scramClient) Done() bool {
	return x.ClientConversation.Done()
}
