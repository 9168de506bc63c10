package matchspy

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCodecRoundTrip(t *testing.T) {
	for _, format := range []string{"yaml", "json", "YAML"} {
		t.Run(format, func(t *testing.T) {
			codec, err := NewCodec(format)
			if err != nil {
				t.Fatalf("NewCodec: %v", err)
			}
			terms := []string{"new york", "- dash", "yes", "1984", "ünïcode"}
			payload, err := codec.Encode(terms)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := codec.Decode(payload)
			if err != nil {
				t.Fatalf("Decode(%q): %v", payload, err)
			}
			if diff := cmp.Diff(terms, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCodecEmpty(t *testing.T) {
	for _, codec := range []Codec{YAMLCodec{}, JSONCodec{}} {
		payload, err := codec.Encode(nil)
		if err != nil || payload != "" {
			t.Errorf("%T.Encode(nil) = %q, %v", codec, payload, err)
		}
		terms, err := codec.Decode("")
		if err != nil || len(terms) != 0 {
			t.Errorf("%T.Decode(\"\") = %v, %v", codec, terms, err)
		}
	}
}

func TestYAMLDecodeFlowAndBlock(t *testing.T) {
	tests := map[string][]string{
		"- cat\n- dog\n": {"cat", "dog"},
		"[cat, dog]":     {"cat", "dog"},
		"--- \n- bird\n": {"bird"},
	}
	for payload, want := range tests {
		got, err := YAMLCodec{}.Decode(payload)
		if err != nil {
			t.Errorf("Decode(%q): %v", payload, err)
			continue
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Decode(%q) mismatch (-want +got):\n%s", payload, diff)
		}
	}
}

func TestNewCodecUnknown(t *testing.T) {
	if _, err := NewCodec("msgpack"); err == nil {
		t.Error("expected error for unknown format")
	}
}
