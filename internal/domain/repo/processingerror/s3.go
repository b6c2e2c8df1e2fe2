package processingerror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/common/version"

	"github.com/openshift-assisted/ansible-receipts/internal/log"
	"github.com/openshift-assisted/ansible-receipts/pkg/pipeline"
)

const (
	unknownHostname = "<unknown>"

	keyTemplate = "<prefix>/<year>/<month>/<day>/<run>/<source>.json"
)

var ErrMissingSource = errors.New("processing error without source")

// S3Writer stores one dead letter per faulty line, grouped by day and run.
type S3Writer struct {
	client *s3.Client
	clock  clockwork.Clock

	bucket string
	prefix string
	runID  string

	hostname string
}

func NewS3Writer(client *s3.Client, clock clockwork.Clock, bucket string, prefix string, runID string) S3Writer {
	hostname, err := os.Hostname()
	if err != nil {
		log.Logger().Error(err, "Hostname lookup failed, dead letters will use "+unknownHostname)

		hostname = unknownHostname
	}

	return S3Writer{
		client:   client,
		clock:    clock,
		bucket:   bucket,
		prefix:   prefix,
		runID:    runID,
		hostname: hostname,
	}
}

func (w S3Writer) WriteProcessingError(ctx context.Context, pErr pipeline.ErrProcessingError) error {
	letter, err := w.deadLetter(pErr)
	if err != nil {
		return err
	}

	body, err := json.Marshal(letter)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	key, err := w.computeObjectKey(pErr)
	if err != nil {
		return err
	}

	_, err = w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put dead letter %s: %w", key, err)
	}

	return nil
}

func (w S3Writer) deadLetter(pErr pipeline.ErrProcessingError) (DeadLetter, error) {
	if pErr.Source == "" {
		return DeadLetter{}, ErrMissingSource
	}

	inputs := make([]KeyValue, 0, len(pErr.AdditionalInputs))
	for _, input := range pErr.AdditionalInputs {
		inputs = append(inputs, KeyValue{Source: input.Source, Key: input.Key, Value: string(input.Value)})
	}

	return DeadLetter{
		Time:     w.clock.Now(),
		Host:     w.hostname,
		RunID:    w.runID,
		Revision: version.Revision,
		Version:  version.Version,
		Source:   Source{Name: pErr.Source, Payload: string(pErr.Payload)},
		Inputs:   inputs,
		Category: pErr.Category,
		Error:    pErr.Error(),
	}, nil
}

func (w S3Writer) computeObjectKey(pErr pipeline.ErrProcessingError) (string, error) {
	if pErr.Source == "" {
		return "", ErrMissingSource
	}

	day := w.clock.Now().UTC()

	key := strings.NewReplacer(
		"<prefix>", w.prefix,
		"<year>", day.Format("2006"),
		"<month>", day.Format("01"),
		"<day>", day.Format("02"),
		"<run>", w.runID,
		"<source>", strings.ReplaceAll(pErr.Source, "/", "_"),
	).Replace(keyTemplate)

	return strings.TrimPrefix(key, "/"), nil
}
