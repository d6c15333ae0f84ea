package store

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

func marshalValue(v string) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return data, nil
}

func unmarshalValue(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	var v string
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return "", fmt.Errorf("unmarshal value: %w", err)
	}
	return v, nil
}
