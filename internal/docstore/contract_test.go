package docstore

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

// testStoreContract exercises the behaviour every backend must share.
func testStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing document is ErrNotFound", func(t *testing.T) {
		_, err := s.Read(ctx, "absent.json")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Read() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("write then read returns same bytes", func(t *testing.T) {
		body := []byte("{\n    \"alice\": {\n        \"count\": 1\n    }\n}")
		if err := s.Write(ctx, "quotas.json", body); err != nil {
			t.Fatalf("Write() unexpected error: %v", err)
		}

		got, err := s.Read(ctx, "quotas.json")
		if err != nil {
			t.Fatalf("Read() unexpected error: %v", err)
		}
		if !bytes.Equal(got, body) {
			t.Errorf("Read() = %q, want %q", got, body)
		}
	})

	t.Run("write replaces previous document", func(t *testing.T) {
		if err := s.Write(ctx, "links.json", []byte(`{"a": 1, "b": 2}`)); err != nil {
			t.Fatalf("Write() unexpected error: %v", err)
		}
		if err := s.Write(ctx, "links.json", []byte(`{}`)); err != nil {
			t.Fatalf("Write() unexpected error: %v", err)
		}

		got, err := s.Read(ctx, "links.json")
		if err != nil {
			t.Fatalf("Read() unexpected error: %v", err)
		}
		if string(got) != "{}" {
			t.Errorf("Read() = %q, want %q", got, "{}")
		}
	})

	t.Run("documents are independent", func(t *testing.T) {
		if err := s.Write(ctx, "one.json", []byte("1")); err != nil {
			t.Fatalf("Write() unexpected error: %v", err)
		}
		if err := s.Write(ctx, "two.json", []byte("2")); err != nil {
			t.Fatalf("Write() unexpected error: %v", err)
		}

		got, err := s.Read(ctx, "one.json")
		if err != nil {
			t.Fatalf("Read() unexpected error: %v", err)
		}
		if string(got) != "1" {
			t.Errorf("Read(one.json) = %q, want %q", got, "1")
		}
	})

	t.Run("rejects invalid names", func(t *testing.T) {
		for _, name := range []string{"", "..", "a/b", `a\b`} {
			if err := s.Write(ctx, name, []byte("x")); err == nil {
				t.Errorf("Write(%q) expected error, got nil", name)
			}
			if _, err := s.Read(ctx, name); err == nil {
				t.Errorf("Read(%q) expected error, got nil", name)
			}
		}
	})
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain file name", "tweets.json", false},
		{"redis style key", "engagebot:links", false},
		{"empty", "", true},
		{"dot", ".", true},
		{"parent", "..", true},
		{"forward slash", "dir/file.json", true},
		{"backslash", `dir\file.json`, true},
		{"too long", string(bytes.Repeat([]byte("a"), maxNameLength+1)), true},
		{"at max length", string(bytes.Repeat([]byte("a"), maxNameLength)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
