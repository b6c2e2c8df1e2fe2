package receipt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jonboulle/clockwork"

	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
)

const keyTemplate = "<prefix>/<year>/<month>/<day>/<run>.json"

var ErrEmptyRunID = errors.New("empty run id")

// S3Writer uploads a copy of the receipts document, one object per run.
type S3Writer struct {
	s3client *s3.Client
	clock    clockwork.Clock

	bucket string
	prefix string
	runID  string
}

func NewS3Writer(s3client *s3.Client, clock clockwork.Clock, bucket string, prefix string, runID string) S3Writer {
	return S3Writer{
		s3client: s3client,
		clock:    clock,
		bucket:   bucket,
		prefix:   prefix,
		runID:    runID,
	}
}

func (s S3Writer) WriteReceipts(ctx context.Context, receipts entity.Aggregate) error {
	key, err := s.computeObjectKey()
	if err != nil {
		return fmt.Errorf("failed to compute object key: %w", err)
	}

	b, err := json.Marshal(receipts)
	if err != nil {
		return fmt.Errorf("failed to marshal receipts: %w", err)
	}

	params := &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   bytes.NewReader(b),
	}

	_, err = s.s3client.PutObject(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to write in s3: %w", err)
	}

	return nil
}

func (s S3Writer) computeObjectKey() (string, error) {
	if s.runID == "" {
		return "", ErrEmptyRunID
	}

	now := s.clock.Now().UTC()

	template := strings.NewReplacer(
		"<prefix>", s.prefix,
		"<year>", fmt.Sprintf("%04d", now.Year()),
		"<month>", fmt.Sprintf("%02d", now.Month()),
		"<day>", fmt.Sprintf("%02d", now.Day()),
		"<run>", s.runID,
	)

	return strings.TrimPrefix(template.Replace(keyTemplate), "/"), nil
}
