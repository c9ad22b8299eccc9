package record

import (
	"strings"
	"testing"
	"time"
)

func TestRecord_EncodeDecode(t *testing.T) {
	expiry := time.Now().Add(time.Minute).Truncate(time.Millisecond)
	rec := New("quote:AAPL", []byte(`{"price":123.45}`), expiry, []string{"quote", "AAPL"})

	data, err := rec.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if got.Key != rec.Key {
		t.Errorf("Key = %q, want %q", got.Key, rec.Key)
	}
	if string(got.Value) != string(rec.Value) {
		t.Errorf("Value = %q, want %q", got.Value, rec.Value)
	}
	if !got.Expiry().Equal(expiry) {
		t.Errorf("Expiry() = %v, want %v", got.Expiry(), expiry)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "quote" {
		t.Errorf("Tags = %v, want [quote AAPL]", got.Tags)
	}
}

func TestDecode_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"truncated", []byte(`{"key":"a","val`)},
		{"not JSON", []byte("parquet")},
		{"missing key", []byte(`{"value":"aGk=","expires_at_ms":1}`)},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.data); err == nil {
				t.Error("Decode() expected error, got nil")
			}
		})
	}
}

func TestRecord_Expired(t *testing.T) {
	now := time.Now()
	fresh := New("k", nil, now.Add(time.Second), nil)
	stale := New("k", nil, now.Add(-time.Second), nil)

	if fresh.Expired(now) {
		t.Error("fresh record reported expired")
	}
	if !stale.Expired(now) {
		t.Error("stale record reported fresh")
	}
	// Exact boundary counts as expired.
	edge := New("k", nil, now, nil)
	if !edge.Expired(edge.Expiry()) {
		t.Error("record at its exact expiry should be expired")
	}
}

func TestFilename(t *testing.T) {
	a := Filename("quote:AAPL")
	b := Filename("quote:AAPL")
	c := Filename("quote:MSFT")

	if a != b {
		t.Error("Filename() not stable for identical keys")
	}
	if a == c {
		t.Error("Filename() collides for distinct keys")
	}
	if len(a) != 64 {
		t.Errorf("Filename() length = %d, want 64", len(a))
	}

	// Hostile keys must not produce path components.
	for _, key := range []string{"../../etc/passwd", "a/b/c", strings.Repeat("x", 10000), "nul\x00byte"} {
		name := Filename(key)
		if strings.ContainsAny(name, "/\\.") {
			t.Errorf("Filename(%q) = %q contains path characters", key, name)
		}
	}
}
