package config

import (
	"reflect"
	"testing"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"simple", "1.1.1.1,8.8.8.8", []string{"1.1.1.1", "8.8.8.8"}},
		{"spaces and empties", " 1.1.1.1 , ,8.8.8.8, ", []string{"1.1.1.1", "8.8.8.8"}},
		{"empty", "", nil},
		{"single", "9.9.9.9", []string{"9.9.9.9"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitList(tt.raw); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("SplitList(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("DOHLISTS_TEST_KEY", "set")
	if got := GetEnv("DOHLISTS_TEST_KEY", "fallback"); got != "set" {
		t.Fatalf("GetEnv returned %q, want %q", got, "set")
	}
	if got := GetEnv("DOHLISTS_TEST_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("GetEnv returned %q, want fallback", got)
	}
}
