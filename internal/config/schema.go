package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Setting keys recognized by the resolver. Values are stored as strings and
// typed on read.
const (
	KeyBackgroundColor      = "background_color"
	KeyDefaultInterval      = "default_interval"
	KeyStartFullscreen      = "start_fullscreen"
	KeyEnableManualControls = "enable_manual_controls"
	KeyImageExtensions      = "image_extensions"
	KeyEnableInky           = "enable_inky"
	KeyDefaultFolder        = "default_folder"
)

// Kind describes how a stored string value is typed on read.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindList
)

// Setting describes one entry in the known-settings schema.
type Setting struct {
	Key     string
	Kind    Kind
	Default string
}

var schema = []Setting{
	{Key: KeyBackgroundColor, Kind: KindString, Default: defaultBackgroundColor},
	{Key: KeyDefaultInterval, Kind: KindInt, Default: strconv.Itoa(defaultIntervalSeconds)},
	{Key: KeyStartFullscreen, Kind: KindBool, Default: "true"},
	{Key: KeyEnableManualControls, Kind: KindBool, Default: "true"},
	{Key: KeyImageExtensions, Kind: KindList, Default: defaultImageExtensions},
	{Key: KeyEnableInky, Kind: KindBool, Default: "false"},
	{Key: KeyDefaultFolder, Kind: KindString, Default: defaultImagesFolder},
}

var schemaByKey = func() map[string]Setting {
	byKey := make(map[string]Setting, len(schema))
	for _, setting := range schema {
		byKey[setting.Key] = setting
	}
	return byKey
}()

// Schema returns the known-settings schema in declaration order.
func Schema() []Setting {
	out := make([]Setting, len(schema))
	copy(out, schema)
	return out
}

// Lookup returns the schema entry for key.
func Lookup(key string) (Setting, bool) {
	setting, ok := schemaByKey[key]
	return setting, ok
}

// ParseBool accepts the spellings the settings store has historically held.
func ParseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", value)
}

// ParseList splits a comma-delimited list, trimming and lowercasing entries.
func ParseList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// checkValue validates a raw string against the schema entry and returns the
// canonical stored form.
func checkValue(setting Setting, raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	switch setting.Kind {
	case KindInt:
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return "", fmt.Errorf("must be an integer")
		}
		if setting.Key == KeyDefaultInterval && n < 1 {
			return "", fmt.Errorf("must be at least 1 second")
		}
		return strconv.Itoa(n), nil
	case KindBool:
		b, err := ParseBool(trimmed)
		if err != nil {
			return "", fmt.Errorf("must be true or false")
		}
		return strconv.FormatBool(b), nil
	case KindList:
		entries := ParseList(trimmed)
		if len(entries) == 0 {
			return "", fmt.Errorf("must list at least one extension")
		}
		for _, entry := range entries {
			if !strings.HasPrefix(entry, ".") {
				return "", fmt.Errorf("extension %q must start with a dot", entry)
			}
		}
		return strings.Join(entries, ","), nil
	default:
		if trimmed == "" {
			return "", fmt.Errorf("must not be empty")
		}
		return trimmed, nil
	}
}

// FieldError reports a per-field rejection from patch validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidatePatch checks a partial settings update against the schema and the
// cross-field invariants, using current store values for fields the patch
// does not touch. It returns the canonical form of the patch alongside any
// field-level rejections; a non-empty error list means nothing should be
// written.
func ValidatePatch(patch map[string]string, current map[string]string) (map[string]string, []FieldError) {
	var errs []FieldError
	canonical := make(map[string]string, len(patch))

	for key, raw := range patch {
		setting, ok := Lookup(key)
		if !ok {
			errs = append(errs, FieldError{Field: key, Message: "unknown setting"})
			continue
		}
		value, err := checkValue(setting, raw)
		if err != nil {
			errs = append(errs, FieldError{Field: key, Message: err.Error()})
			continue
		}
		canonical[key] = value
	}
	if len(errs) > 0 {
		return nil, errs
	}

	// Cross-field invariant: e-ink panels need a slow interval. Evaluate
	// against the effective post-patch state so a patch touching either
	// field alone is still caught.
	effective := func(key string) string {
		if v, ok := canonical[key]; ok {
			return v
		}
		if v, ok := current[key]; ok {
			return v
		}
		return schemaByKey[key].Default
	}
	inky, inkyErr := ParseBool(effective(KeyEnableInky))
	interval, intervalErr := strconv.Atoi(effective(KeyDefaultInterval))
	if inkyErr == nil && intervalErr == nil && inky && interval < MinInkyIntervalSeconds {
		field := KeyDefaultInterval
		if _, touched := canonical[field]; !touched {
			field = KeyEnableInky
		}
		errs = append(errs, FieldError{
			Field:   field,
			Message: fmt.Sprintf("default_interval must be at least %d seconds while enable_inky is true", MinInkyIntervalSeconds),
		})
		return nil, errs
	}

	return canonical, nil
}
