package channel

import (
	"encoding/json"

	"github.com/openshift-assisted/ansible-receipts/internal/common"
	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
	"github.com/openshift-assisted/ansible-receipts/pkg/pipeline"
)

const categoryEncodeError = "encode_event"

func encode(event entity.Event) ([]byte, error) {
	ret, err := json.Marshal(event)
	if err != nil {
		return nil, common.NewErrProcessingError(err, categoryEncodeError, nil, "failed to marshal %s event", event.Kind)
	}

	return ret, nil
}

// decode failures are not retryable and carry the raw payload for dead letters.
func decode(source string, data []byte) (entity.Event, error) {
	ret := entity.Event{}

	err := json.Unmarshal(data, &ret)
	if err != nil {
		return ret, pipeline.NewErrProcessingError(err, pipeline.UnmarshalErrorCategory, nil).WithPayload(source, data)
	}

	return ret, nil
}
