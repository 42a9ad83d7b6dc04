package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// marshalConfig converts a run configuration to JSON TEXT for storage.
// HTML escaping is disabled so the stored text matches what the config
// hash was computed over.
func marshalConfig(cfg any) (string, error) {
	if cfg == nil {
		return "{}", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cfg); err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// unmarshalConfig decodes stored config JSON into dst.
func unmarshalConfig(data string, dst any) error {
	if data == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}
