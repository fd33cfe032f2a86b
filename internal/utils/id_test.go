package utils

import (
	"strings"
	"testing"
)

func TestNewSessionID(t *testing.T) {
	id := NewSessionID()

	if !strings.HasPrefix(id, "sess_") {
		t.Errorf("id should start with sess_, got %q", id)
	}
	if len(id) != len("sess_")+32 {
		t.Errorf("id length = %d, expected %d", len(id), len("sess_")+32)
	}
	if strings.Contains(id, "-") {
		t.Errorf("id should not contain dashes, got %q", id)
	}
}

func TestNewSessionID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewSessionID()
		if seen[id] {
			t.Fatalf("duplicate session id generated: %q", id)
		}
		seen[id] = true
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{"Marketing Team", "marketing-team-"},
		{"  ACME Corp!  ", "acme-corp-"},
		{"Team #1 (2024)", "team-1-2024-"},
		{"", "team-"},
		{"!!!", "team-"},
	}

	for _, tt := range tests {
		slug := Slugify(tt.name)
		if !strings.HasPrefix(slug, tt.prefix) {
			t.Errorf("Slugify(%q) = %q, expected prefix %q", tt.name, slug, tt.prefix)
		}
		suffix := strings.TrimPrefix(slug, tt.prefix)
		if len(suffix) != 8 {
			t.Errorf("Slugify(%q) suffix length = %d, expected 8", tt.name, len(suffix))
		}
	}
}

func TestSlugify_Unique(t *testing.T) {
	if Slugify("Marketing") == Slugify("Marketing") {
		t.Error("same name should produce different slugs")
	}
}
