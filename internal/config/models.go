package config

import "time"

type Config struct {
	GracefulDuration time.Duration
	Metrics          Metrics
	Logs             Logs
	Run              Run
	Retry            Retry
	Transport        Transport
	Output           Output
	DeadLetterQueue  S3
}

type Metrics struct {
	Port int
}

type Logs struct {
	Level   int
	Encoder EncoderType
}

type EncoderType string

const (
	EncoderTypeJson    EncoderType = "json"
	EncoderTypeConsole EncoderType = "console"
)

type Run struct {
	ID   string
	Mode RunMode
}

type RunMode string

const (
	// RunModeRelay funnels producers through the collector before folding.
	RunModeRelay RunMode = "relay"
	// RunModeLocal folds the inbound channel directly.
	RunModeLocal RunMode = "local"
)

type Retry struct {
	MaxAttempt uint
	Delay      time.Duration
}

type TransportType string

const (
	TransportTypeValkey TransportType = "valkey"
	TransportTypeKafka  TransportType = "kafka"
)

type Transport struct {
	Type   TransportType
	Valkey ValkeyChannel
	Kafka  Kafka
}

type ValkeyChannel struct {
	Valkey      Valkey
	Key         string
	PollTimeout time.Duration
}

type Output struct {
	// Path of the json artifact. Empty disables the file output.
	Path   string
	S3     S3
	Valkey ValkeyOutput
}

type ValkeyOutput struct {
	Enabled    bool
	Valkey     Valkey
	KeyPrefix  string
	Expiration time.Duration
}

type S3 struct {
	Bucket       string
	KeyPrefix    string
	BaseEndpoint string
	Region       string
	UsePathStyle bool
	Creds        AWSCreds
}

type AWSCreds struct {
	AccessKeyID     string
	SecretAccessKey string
}

func (c AWSCreds) String() string {
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		return "creds set"
	}

	return "no creds"
}

type Kafka struct {
	Broker  KafkaBroker
	Channel KafkaChannel
}

type KafkaBroker struct {
	URLs    string
	Version string
	Creds   KafkaCreds
}

type SASLMechanism string

const (
	SASLMechanismNone        SASLMechanism = ""
	SASLMechanismPlain       SASLMechanism = "PLAIN"
	SASLMechanismScramSHA256 SASLMechanism = "SCRAM-SHA-256"
	SASLMechanismScramSHA512 SASLMechanism = "SCRAM-SHA-512"
)

type KafkaCreds struct {
	Mechanism SASLMechanism
	User      string
	Password  string
}

func (c KafkaCreds) String() string {
	if c.Mechanism == SASLMechanismNone {
		return "no sasl"
	}

	return string(c.Mechanism) + " creds set"
}

type KafkaChannel struct {
	Topic     string
	Partition int32
	// Oldest replays the whole partition, otherwise only new messages are read
	Oldest bool
}

type Valkey struct {
	URL   string
	DB    int
	Creds ValkeyCreds
}

type ValkeyCreds struct {
	Password string
}

func (c ValkeyCreds) String() string {
	if c.Password != "" {
		return "password set"
	}

	return "no password"
}
