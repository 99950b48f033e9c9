package decode

import (
	"ChatRelay/tools/errs"

	"github.com/mitchellh/mapstructure"
)

// Map decodes a generic JSON object into a typed payload struct.
// Unknown keys are ignored; type mismatches surface as errors so the
// caller can reject the frame as malformed instead of crashing.
func Map[T any](in map[string]any) (*T, error) {
	var out T
	if in == nil {
		// absent data decodes to the zero payload; required fields are
		// the handler's business
		return &out, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errs.Wrap(err, "build decoder")
	}
	if err := dec.Decode(in); err != nil {
		return nil, errs.Wrap(err, "decode payload")
	}
	return &out, nil
}
