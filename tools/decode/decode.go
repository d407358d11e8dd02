package decode

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Options tunes decode behaviour.
type Options struct {
	// WeaklyTypedInput allows "123" -> int, 1.0 -> int64 and similar
	// coercions. Default true: socket payloads come from JS clients.
	WeaklyTypedInput bool
}

func DefaultOptions() Options {
	return Options{WeaklyTypedInput: true}
}

// Struct decodes a generic JSON value (map[string]any) into a typed
// payload T. Field names are read from `json` tags.
func Struct[T any](v any, opts ...Options) (*T, error) {
	if v == nil {
		return nil, fmt.Errorf("payload is nil")
	}

	cfg := DefaultOptions()
	if len(opts) > 0 {
		cfg = opts[0]
	}

	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: cfg.WeaklyTypedInput,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &out, nil
}
