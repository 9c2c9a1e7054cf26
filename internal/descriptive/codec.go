package descriptive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// DecodeOptions tune validation applied while decoding a document.
type DecodeOptions struct {
	// RequireContiguous rejects grouped data whose intervals leave gaps,
	// overlap, or are out of order.
	RequireContiguous bool
}

type document struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Decode reads a {"type": ..., "data": [...]} document. The type tag is
// checked before the payload is parsed.
func Decode(r io.Reader, opts DecodeOptions) (Dataset, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	kind, err := ParseKind(doc.Type)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindArray:
		var values []float64
		if err := unmarshalData(doc.Data, &values); err != nil {
			return nil, err
		}
		return NewSample(values)
	case KindIntervals:
		var intervals []Interval
		if err := unmarshalData(doc.Data, &intervals); err != nil {
			return nil, err
		}
		g, err := NewGroupedIntervals(intervals)
		if err != nil {
			return nil, err
		}
		if opts.RequireContiguous {
			if err := ValidateContiguous(g); err != nil {
				return nil, err
			}
		}
		return g, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, doc.Type)
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(b []byte, opts DecodeOptions) (Dataset, error) {
	return Decode(bytes.NewReader(b), opts)
}

func unmarshalData(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode dataset data: %w", err)
	}
	return nil
}

// Encode renders ds back into its external document form.
func Encode(ds Dataset) ([]byte, error) {
	var data any
	switch d := ds.(type) {
	case Sample:
		data = nonNilFloats(d.values)
	case GroupedIntervals:
		data = d.Intervals()
		if d.intervals == nil {
			data = []Interval{}
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, ds)
	}
	return json.Marshal(struct {
		Type Kind `json:"type"`
		Data any  `json:"data"`
	}{ds.Kind(), data})
}
