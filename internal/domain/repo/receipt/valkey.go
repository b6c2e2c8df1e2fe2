package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/openshift-assisted/ansible-receipts/internal/common"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
)

const (
	categoryInternalError     = "valkey_internal_error"
	categoryValkeyClientError = "valkey_client"
)

// ValkeyWriter publishes one hash per run: field = host, value = receipt json.
type ValkeyWriter struct {
	client     valkey.Client
	keyPrefix  string
	expiration time.Duration
}

func NewValkeyWriter(client valkey.Client, keyPrefix string, expiration time.Duration) ValkeyWriter {
	return ValkeyWriter{
		client:     client,
		keyPrefix:  keyPrefix,
		expiration: expiration,
	}
}

func (r ValkeyWriter) Key(runID string) string {
	return fmt.Sprintf("%s:%s", r.keyPrefix, runID)
}

// Writer binds the repo to a run.
func (r ValkeyWriter) Writer(runID string) RunValkeyWriter {
	return RunValkeyWriter{repo: r, runID: runID}
}

func (r ValkeyWriter) WriteRunReceipts(ctx context.Context, runID string, receipts entity.Aggregate) error {
	if len(receipts) == 0 {
		return nil // HSET requires at least one field
	}

	key := r.Key(runID)

	command := r.client.B().Hset().Key(key).FieldValue()

	for host, receipt := range receipts {
		data, err := json.Marshal(receipt)
		if err != nil {
			return common.NewErrProcessingError(err, categoryInternalError, nil, "failed to marshal receipt of %s", host)
		}

		command = command.FieldValue(host, string(data))
	}

	err := r.client.Do(ctx, command.Build()).Error()
	if err != nil {
		return common.NewMaybeRetryableErrProcessingError(r.isRetryable(err), err, categoryValkeyClientError, nil, "failed to set hkey")
	}

	// Set expiration
	expireCommand := r.client.B().Expire().Key(key).Seconds(int64(r.expiration.Seconds())).Build()

	err = r.client.Do(ctx, expireCommand).Error()
	if err != nil {
		return common.NewMaybeRetryableErrProcessingError(r.isRetryable(err), err, categoryValkeyClientError, nil, "failed to set expiration")
	}

	return nil
}

func (r ValkeyWriter) GetRunReceipts(ctx context.Context, runID string) (entity.Aggregate, error) {
	command := r.client.B().Hgetall().Key(r.Key(runID)).Build()

	resp := r.client.Do(ctx, command)

	err := resp.Error()
	if err != nil {
		return nil, common.NewMaybeRetryableErrProcessingError(r.isRetryable(err), err, categoryValkeyClientError, nil, "failed to get all receipts")
	}

	result, err := resp.AsStrMap()
	if err != nil {
		return nil, common.NewErrProcessingError(err, categoryInternalError, nil, "unexpected hgetall response type for %s", runID)
	}

	ret := make(entity.Aggregate, len(result))

	for host, jsonReceipt := range result {
		receipt := entity.NewReceipt()

		err := json.Unmarshal([]byte(jsonReceipt), receipt)
		if err != nil {
			return nil, common.NewErrProcessingError(err, categoryInternalError, nil, "failed to unmarshal receipt of %s %s", runID, host)
		}

		ret[host] = receipt
	}

	return ret, nil
}

func (r ValkeyWriter) isRetryable(err error) bool {
	// Network error
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	// Valkey specfic error
	vErr, isValkeyError := valkey.IsValkeyErr(err)
	if !isValkeyError {
		return false
	}

	return vErr.IsTryAgain()
}

// RunValkeyWriter is a ValkeyWriter bound to a run id.
type RunValkeyWriter struct {
	repo  ValkeyWriter
	runID string
}

func (w RunValkeyWriter) WriteReceipts(ctx context.Context, receipts entity.Aggregate) error {
	return w.repo.WriteRunReceipts(ctx, w.runID, receipts)
}
