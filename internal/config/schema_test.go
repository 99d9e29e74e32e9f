package config_test

import (
	"strconv"
	"testing"

	"easel/internal/config"
)

func TestValidatePatchCanonicalizesValues(t *testing.T) {
	patch := map[string]string{
		config.KeyDefaultInterval: " 15 ",
		config.KeyStartFullscreen: "Yes",
		config.KeyImageExtensions: ".JPG, .png ,",
	}
	canonical, errs := config.ValidatePatch(patch, nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected field errors: %v", errs)
	}
	if canonical[config.KeyDefaultInterval] != "15" {
		t.Errorf("interval = %q, want 15", canonical[config.KeyDefaultInterval])
	}
	if canonical[config.KeyStartFullscreen] != "true" {
		t.Errorf("fullscreen = %q, want true", canonical[config.KeyStartFullscreen])
	}
	if canonical[config.KeyImageExtensions] != ".jpg,.png" {
		t.Errorf("extensions = %q, want .jpg,.png", canonical[config.KeyImageExtensions])
	}
}

func TestValidatePatchRejections(t *testing.T) {
	cases := []struct {
		name  string
		patch map[string]string
	}{
		{"unknown key", map[string]string{"mystery": "1"}},
		{"non-numeric interval", map[string]string{config.KeyDefaultInterval: "abc"}},
		{"negative interval", map[string]string{config.KeyDefaultInterval: "-5"}},
		{"zero interval", map[string]string{config.KeyDefaultInterval: "0"}},
		{"bad boolean", map[string]string{config.KeyEnableInky: "maybe"}},
		{"empty extension list", map[string]string{config.KeyImageExtensions: " , "}},
		{"extension without dot", map[string]string{config.KeyImageExtensions: "jpg"}},
		{"empty color", map[string]string{config.KeyBackgroundColor: "  "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			canonical, errs := config.ValidatePatch(tc.patch, nil)
			if len(errs) == 0 {
				t.Fatalf("expected rejection, got canonical %v", canonical)
			}
			if canonical != nil {
				t.Fatal("rejected patch must not return canonical values")
			}
		})
	}
}

func TestValidatePatchCollectsAllFieldErrors(t *testing.T) {
	patch := map[string]string{
		config.KeyDefaultInterval: "abc",
		config.KeyEnableInky:      "maybe",
		"unknown":                 "x",
	}
	_, errs := config.ValidatePatch(patch, nil)
	if len(errs) != 3 {
		t.Fatalf("expected 3 field errors, got %d: %v", len(errs), errs)
	}
}

func TestValidatePatchInkyCrossField(t *testing.T) {
	// Patching the interval below the floor while inky is already on.
	current := map[string]string{config.KeyEnableInky: "true"}
	_, errs := config.ValidatePatch(map[string]string{config.KeyDefaultInterval: "10"}, current)
	if len(errs) != 1 || errs[0].Field != config.KeyDefaultInterval {
		t.Fatalf("expected interval rejection, got %v", errs)
	}

	// Turning inky on while the stored interval is too fast.
	current = map[string]string{config.KeyDefaultInterval: "5"}
	_, errs = config.ValidatePatch(map[string]string{config.KeyEnableInky: "true"}, current)
	if len(errs) != 1 || errs[0].Field != config.KeyEnableInky {
		t.Fatalf("expected enable_inky rejection, got %v", errs)
	}

	// Both together is fine when the interval clears the floor.
	canonical, errs := config.ValidatePatch(map[string]string{
		config.KeyEnableInky:      "true",
		config.KeyDefaultInterval: strconv.Itoa(config.MinInkyIntervalSeconds),
	}, nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected rejection: %v", errs)
	}
	if canonical[config.KeyDefaultInterval] != strconv.Itoa(config.MinInkyIntervalSeconds) {
		t.Fatalf("unexpected canonical interval %q", canonical[config.KeyDefaultInterval])
	}

	// Turning inky off clears the constraint even with a fast interval.
	current = map[string]string{config.KeyDefaultInterval: "5", config.KeyEnableInky: "true"}
	if _, errs := config.ValidatePatch(map[string]string{config.KeyEnableInky: "false"}, current); len(errs) != 0 {
		t.Fatalf("unexpected rejection: %v", errs)
	}
}

func TestParseBoolSpellings(t *testing.T) {
	truthy := []string{"true", "TRUE", "1", "yes", "On"}
	for _, raw := range truthy {
		got, err := config.ParseBool(raw)
		if err != nil || !got {
			t.Errorf("ParseBool(%q) = %v, %v; want true", raw, got, err)
		}
	}
	falsy := []string{"false", "0", "no", "OFF"}
	for _, raw := range falsy {
		got, err := config.ParseBool(raw)
		if err != nil || got {
			t.Errorf("ParseBool(%q) = %v, %v; want false", raw, got, err)
		}
	}
	if _, err := config.ParseBool("maybe"); err == nil {
		t.Error("ParseBool must reject unrecognized spellings")
	}
}

func TestSchemaLookup(t *testing.T) {
	for _, setting := range config.Schema() {
		found, ok := config.Lookup(setting.Key)
		if !ok || found.Key != setting.Key {
			t.Errorf("Lookup(%q) failed", setting.Key)
		}
	}
	if _, ok := config.Lookup("nope"); ok {
		t.Error("Lookup must miss unknown keys")
	}
}
