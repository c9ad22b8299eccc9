package gcsstore

import (
	"testing"

	"github.com/tradekit/depot/internal/codec/noopcodec"
	"github.com/tradekit/depot/internal/codec/zstdcodec"
	"github.com/tradekit/depot/internal/record"
)

func TestWithPrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"prefix", "prefix/"},
		{"prefix/", "prefix/"},
		{"a/b/c", "a/b/c/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := &Store{}
			WithPrefix(tt.input)(s)
			if s.prefix != tt.want {
				t.Errorf("prefix = %q, want %q", s.prefix, tt.want)
			}
		})
	}
}

func TestStore_objectKey(t *testing.T) {
	s := &Store{codec: zstdcodec.New(), prefix: "cache/"}

	got := s.objectKey("fundamentals:MSFT")
	want := "cache/records/" + record.Filename("fundamentals:MSFT") + ".zst"
	if got != want {
		t.Errorf("objectKey() = %q, want %q", got, want)
	}
}

func TestStore_objectKey_NoCompression(t *testing.T) {
	s := &Store{codec: noopcodec.New()}

	got := s.objectKey("k")
	want := "records/" + record.Filename("k")
	if got != want {
		t.Errorf("objectKey() = %q, want %q", got, want)
	}
}
