package main

import "testing"

func TestParseWeightOverrides(t *testing.T) {
	overrides, err := parseWeightOverrides([]string{"chord_tone_emphasis=0.3", "note_density=0.05"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(overrides) != 2 {
		t.Fatalf("expected 2 overrides, got %d", len(overrides))
	}
	if overrides["chord_tone_emphasis"] != 0.3 {
		t.Errorf("chord_tone_emphasis = %v", overrides["chord_tone_emphasis"])
	}
	if overrides["note_density"] != 0.05 {
		t.Errorf("note_density = %v", overrides["note_density"])
	}
}

func TestParseWeightOverridesEmpty(t *testing.T) {
	overrides, err := parseWeightOverrides(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if overrides != nil {
		t.Fatalf("expected nil map, got %v", overrides)
	}
}

func TestParseWeightOverridesRejectsMalformed(t *testing.T) {
	for _, bad := range []string{"chord_tone_emphasis", "=0.3", "note_density=lots"} {
		if _, err := parseWeightOverrides([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
