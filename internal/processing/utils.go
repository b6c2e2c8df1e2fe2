package processing

import (
	"errors"
	"fmt"
)

var (
	errMissingKey       = errors.New("missing key")
	errFieldInvalidType = errors.New("field type was not the expected one")
	errEmptyValue       = errors.New("empty value")
)

func ExtractString(payload map[string]interface{}, key string) (string, error) {
	value, present := payload[key]
	if !present {
		return "", errMissingKey
	}

	ret, ok := value.(string)
	if !ok {
		return "", errFieldInvalidType
	}

	if ret == "" {
		return "", errEmptyValue
	}

	return ret, nil
}

// ExtractBool returns false when the key is missing.
func ExtractBool(payload map[string]interface{}, key string) (bool, error) {
	value, present := payload[key]
	if !present || value == nil {
		return false, nil
	}

	ret, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s is %T", errFieldInvalidType, key, value)
	}

	return ret, nil
}

// ExtractMap returns an empty map when the key is missing or null.
func ExtractMap(payload map[string]interface{}, key string) (map[string]interface{}, error) {
	value, present := payload[key]
	if !present || value == nil {
		return map[string]interface{}{}, nil
	}

	ret, ok := value.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T", errFieldInvalidType, key, value)
	}

	return ret, nil
}
