package core

import (
	"regexp"
	"strings"
	"testing"
)

func TestNewID(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{
			name:   "valid prefix",
			prefix: "di",
		},
		{
			name:   "valid multi-character prefix",
			prefix: "app",
		},
		{
			name:   "uppercase prefix gets lowercased",
			prefix: "ORG",
		},
		{
			name:   "prefix with spaces gets trimmed",
			prefix: "  ra  ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewID(tt.prefix)

			// Check the format: prefix_ULID
			expectedPrefix := strings.ToLower(strings.TrimSpace(tt.prefix)) + "_"
			if !strings.HasPrefix(got, expectedPrefix) {
				t.Errorf("NewID() = %v, want prefix %v", got, expectedPrefix)
			}

			// Check ULID pattern: 26 characters, base32 encoded
			ulidPart := strings.TrimPrefix(got, expectedPrefix)
			if len(ulidPart) != 26 {
				t.Errorf("NewID() ULID part length = %v, want 26", len(ulidPart))
			}

			// Check ULID format using regex (base32 characters: 0-9, A-Z excluding I, L, O, U)
			ulidPattern := regexp.MustCompile(`^[0123456789ABCDEFGHJKMNPQRSTVWXYZ]{26}$`)
			if !ulidPattern.MatchString(ulidPart) {
				t.Errorf("NewID() ULID part %v does not match expected pattern", ulidPart)
			}
		})
	}
}

func TestNewID_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID("ra")
		if seen[id] {
			t.Fatalf("NewID() produced duplicate ID: %v", id)
		}
		seen[id] = true
	}
}

func TestIsValidULID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid id", NewID("app"), true},
		{"empty string", "", false},
		{"no separator", "app01G0EZ1XTM37C5X11SQTDNCTM1", false},
		{"too many separators", "app_x_01G0EZ1XTM37C5X11SQTDNCTM1", false},
		{"short ulid part", "app_01G0EZ1XTM", false},
		{"uppercase prefix", "APP_01G0EZ1XTM37C5X11SQTDNCTM1", false},
		{"invalid ulid characters", "app_01G0EZ1XTM37C5X11SQTDNCTIL", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidULID(tt.id); got != tt.want {
				t.Errorf("IsValidULID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
