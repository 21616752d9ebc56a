package chat

import (
	"strings"
	"testing"
)

func TestNewIDShape(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewID()
		if !IsCanonicalID(id) {
			t.Fatalf("NewID produced non-canonical id %q", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("NewID repeated %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestLocalIDsNeverCanonical(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := NewLocalID()
		if !IsLocalID(id) {
			t.Fatalf("NewLocalID produced %q without prefix", id)
		}
		if IsCanonicalID(id) {
			t.Fatalf("local id %q passes the canonical check", id)
		}
	}
}

func TestIsCanonicalID(t *testing.T) {
	cases := []struct {
		ref  string
		want bool
	}{
		{"", false},
		{"abc", false},
		{strings.Repeat("a", 24), true},
		{strings.Repeat("a", 23), false},
		{strings.Repeat("a", 25), false},
		{strings.Repeat("A", 24), false},                // uppercase hex is not canonical
		{strings.Repeat("g", 24), false},                // not hex
		{"507f1f77bcf86cd799439011", true},              // legacy store id
		{"b7e23ec2-9354-4bfb-b9bd-0b8c9c4a8f11", false}, // account ids are uuids
	}
	for _, tc := range cases {
		if got := IsCanonicalID(tc.ref); got != tc.want {
			t.Errorf("IsCanonicalID(%q) = %v, want %v", tc.ref, got, tc.want)
		}
	}
}
