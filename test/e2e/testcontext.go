//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const valkeyImage = "quay.io/sclorg/valkey-7-c10s:bf91acf0827dc5db216164aafe3d34beb245dcec"

var random *rand.Rand

func init() {
	now := time.Now()

	random = rand.New(rand.NewSource(now.UnixMilli()))
}

type TestConfig struct {
	Name       string
	RunID      string
	ChannelKey string
	OutputPath string
}

// TestContext holds a valkey instance and the receipts binary shared by the producers of a run.
type TestContext struct {
	Config TestConfig

	binary    string
	valkeyURL string
	container testcontainers.Container
}

func CreateTestConfig(test string, dir string) TestConfig {
	name := fmt.Sprintf("%s-%x", test, random.Int31())

	return TestConfig{
		Name:       name,
		RunID:      fmt.Sprintf("run-%x", random.Int63()),
		ChannelKey: fmt.Sprintf("receipts:%s", name),
		OutputPath: filepath.Join(dir, name, "receipts.json"),
	}
}

// BuildBinary compiles the receipts command into dir.
func BuildBinary(dir string) (string, error) {
	ret := filepath.Join(dir, "receipts")

	err := runCommand(fmt.Sprintf("go build -o %s ../../cmd/receipts", ret), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build receipts: %w", err)
	}

	return ret, nil
}

func CreateTestContext(ctx context.Context, conf TestConfig, binary string) (TestContext, error) {
	ret := TestContext{
		Config: conf,
		binary: binary,
	}

	req := testcontainers.ContainerRequest{
		Image:        valkeyImage,
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections tcp"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return ret, fmt.Errorf("failed to start valkey: %w", err)
	}

	ret.container = container

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		return ret, fmt.Errorf("failed to get valkey endpoint: %w", err)
	}

	ret.valkeyURL = endpoint

	return ret, nil
}

func (tc TestContext) Shutdown(ctx context.Context) error {
	if tc.container == nil {
		return nil
	}

	err := tc.container.Terminate(ctx)
	if err != nil {
		return fmt.Errorf("failed to stop valkey: %w", err)
	}

	return nil
}

func (tc TestContext) env() []string {
	return []string{
		"RECEIPTS_RUN_ID=" + tc.Config.RunID,
		"RECEIPTS_TRANSPORT_TYPE=valkey",
		"RECEIPTS_TRANSPORT_VALKEY_VALKEY_URL=" + tc.valkeyURL,
		"RECEIPTS_TRANSPORT_VALKEY_KEY=" + tc.Config.ChannelKey,
		"RECEIPTS_TRANSPORT_VALKEY_POLLTIMEOUT=200ms",
		"RECEIPTS_METRICS_PORT=0",
		"RECEIPTS_OUTPUT_PATH=" + tc.Config.OutputPath,
	}
}

// StartCollector starts collect in background.
func (tc TestContext) StartCollector() *Process {
	return newProcess(tc.binary+" collect", tc.env(), "").Start()
}

// Emit runs one producer process fed with notifications.
func (tc TestContext) Emit(producer string, notifications ...string) error {
	stdin := ""
	for _, n := range notifications {
		stdin += n + "\n"
	}

	return newProcess(fmt.Sprintf("%s emit --producer %s", tc.binary, producer), tc.env(), stdin).Start().Wait()
}

func (tc TestContext) Complete() error {
	return runCommand(tc.binary+" complete", tc.env())
}

func (tc TestContext) ReadReceipts() ([]byte, error) {
	return os.ReadFile(tc.Config.OutputPath)
}
