package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-logr/logr"
)

const maxLineSize = 16 * 1024 * 1024

// JSONLineHandler decodes line-delimited JSON payloads and hands them to a Processing.
// Payloads that fail are routed to the error processing and the handler moves on, unless the
// failure is an ErrFatalError.
type JSONLineHandler[Payload any] struct {
	logger *logr.Logger

	source string

	processing      Processing[Payload]
	errorProcessing ErrorProcessing
}

func NewJSONLineHandler[Payload any](source string, processing Processing[Payload], errProcessing ErrorProcessing) JSONLineHandler[Payload] {
	return JSONLineHandler[Payload]{
		source:          source,
		processing:      processing,
		errorProcessing: errProcessing,
	}
}

func (h JSONLineHandler[Payload]) WithLogger(logger logr.Logger) JSONLineHandler[Payload] {
	h.logger = &logger

	return h
}

// Consume reads r until EOF or context cancellation. It returns the number of lines processed successfully.
func (h JSONLineHandler[Payload]) Consume(ctx context.Context, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	h.logInfo(0, "Start consuming", "source", h.source)

	lineNumber := 0
	processed := 0

	for scanner.Scan() {
		err := ctx.Err()
		if err != nil {
			return processed, err
		}

		lineNumber++

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		source := fmt.Sprintf("%s:%d", h.source, lineNumber)

		h.logInfo(3, "Processing line", "source", source)

		payload := new(Payload)

		err = json.Unmarshal(line, payload)
		if err != nil { // Not retryable
			h.processError(ctx, source, line, NewErrProcessingError(err, UnmarshalErrorCategory, nil))

			continue
		}

		err = h.processing.Process(ctx, *payload)
		if errors.Is(err, ErrFatalError) {
			h.processError(ctx, source, line, err)

			return processed, fmt.Errorf("stopped at %s: %w", source, err)
		}

		if err != nil {
			h.processError(ctx, source, line, err)

			continue
		}

		processed++
	}

	err := scanner.Err()
	if err != nil {
		return processed, fmt.Errorf("failed to read %s: %w", h.source, err)
	}

	h.logInfo(1, "Stop consuming", "source", h.source, "lines", lineNumber, "processed", processed)

	return processed, nil
}

func (h JSONLineHandler[Payload]) processError(ctx context.Context, source string, line []byte, pipelineError error) {
	// If context has been cancelled, the error is most likely a side effect of it
	err := ctx.Err()
	if err != nil {
		h.logInfo(1, "Not processing error, context has been cancelled")

		return
	}

	h.logError(pipelineError, "Processing failed", "source", source)

	processingError := AsProcessingError(pipelineError).WithPayload(source, append([]byte(nil), line...))

	if h.errorProcessing == nil {
		return
	}

	err = h.errorProcessing.Process(ctx, processingError)
	if err != nil {
		h.logError(err, "Error pipeline failed")

		h.dumpErrorContext(processingError)
	}
}

func (h JSONLineHandler[Payload]) dumpErrorContext(err ErrProcessingError) {
	h.logError(err,
		"Failed to process line",
		"source", err.Source,
		"payload", string(err.Payload),
		"additionalInputs", err.AdditionalInputs,
		"category", err.Category,
	)
}

func (h JSONLineHandler[Payload]) logInfo(level int, msg string, keysAndValues ...any) {
	if h.logger == nil {
		return
	}

	h.logger.V(level).Info(msg, keysAndValues...)
}

func (h JSONLineHandler[Payload]) logError(err error, msg string, keysAndValues ...any) {
	if h.logger == nil {
		return
	}

	h.logger.Error(err, msg, keysAndValues...)
}
