package matchspy

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Decoder turns a stored payload back into its term list. An empty or null
// payload decodes to no terms without error.
type Decoder interface {
	Decode(payload string) ([]string, error)
}

// Encoder is the inverse of Decoder, used by whatever writes payloads into
// the value slot.
type Encoder interface {
	Encode(terms []string) (string, error)
}

// Codec both encodes and decodes one payload format.
type Codec interface {
	Decoder
	Encoder
}

// YAMLCodec stores term lists as YAML sequences.
type YAMLCodec struct{}

func (YAMLCodec) Decode(payload string) ([]string, error) {
	var terms []string
	if err := yaml.Unmarshal([]byte(payload), &terms); err != nil {
		return nil, fmt.Errorf("decoding yaml payload: %w", err)
	}
	return terms, nil
}

func (YAMLCodec) Encode(terms []string) (string, error) {
	if len(terms) == 0 {
		return "", nil
	}
	out, err := yaml.Marshal(terms)
	if err != nil {
		return "", fmt.Errorf("encoding yaml payload: %w", err)
	}
	return string(out), nil
}

// JSONCodec stores term lists as JSON arrays.
type JSONCodec struct{}

func (JSONCodec) Decode(payload string) ([]string, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, nil
	}
	var terms []string
	if err := json.Unmarshal([]byte(payload), &terms); err != nil {
		return nil, fmt.Errorf("decoding json payload: %w", err)
	}
	return terms, nil
}

func (JSONCodec) Encode(terms []string) (string, error) {
	if len(terms) == 0 {
		return "", nil
	}
	out, err := json.Marshal(terms)
	if err != nil {
		return "", fmt.Errorf("encoding json payload: %w", err)
	}
	return string(out), nil
}

// NewCodec returns the codec for a configured payload format.
func NewCodec(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "", "yaml":
		return YAMLCodec{}, nil
	case "json":
		return JSONCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown payload format %q", format)
	}
}
