package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/DavidAngell/padfx/internal/effect"
)

// marshalMeta converts session metadata to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON so equal metadata is stored byte-identically.
func marshalMeta(meta map[string]any) (string, error) {
	if len(meta) == 0 {
		return "{}", nil
	}
	data, err := effect.MarshalCanonical(meta)
	if err != nil {
		return "", fmt.Errorf("marshal meta: %w", err)
	}
	return string(data), nil
}

// unmarshalMeta parses canonical JSON TEXT. Numbers are decoded as int64
// to keep them exact and re-marshalable.
func unmarshalMeta(data string) (map[string]any, error) {
	if data == "" || data == "{}" {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal meta: %w", err)
	}
	v, err := fromJSONNumbers(raw)
	if err != nil {
		return nil, fmt.Errorf("unmarshal meta: %w", err)
	}
	return v.(map[string]any), nil
}

func fromJSONNumbers(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %s", val)
		}
		return n, nil
	case map[string]any:
		for k, elem := range val {
			conv, err := fromJSONNumbers(elem)
			if err != nil {
				return nil, err
			}
			val[k] = conv
		}
		return val, nil
	case []any:
		for i, elem := range val {
			conv, err := fromJSONNumbers(elem)
			if err != nil {
				return nil, err
			}
			val[i] = conv
		}
		return val, nil
	}
	return v, nil
}
