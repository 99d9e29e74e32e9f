package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Source identifies which layer supplied a resolved setting.
type Source string

const (
	SourceFile      Source = "file"
	SourceStore     Source = "store"
	SourceDefault   Source = "default"
	SourceCorrected Source = "corrected"
)

// SettingsReader abstracts the store interactions resolution needs.
type SettingsReader interface {
	GetAll(ctx context.Context) (map[string]string, error)
}

// SettingsWriter extends SettingsReader with the batch write used by sync.
type SettingsWriter interface {
	SettingsReader
	UpsertMany(ctx context.Context, values map[string]string) error
}

// Resolved is an immutable snapshot of the effective slideshow settings:
// fully typed, validated, with per-key provenance for diagnostics.
type Resolved struct {
	BackgroundColor      string
	IntervalSeconds      int
	StartFullscreen      bool
	EnableManualControls bool
	ImageExtensions      []string
	EnableInky           bool
	DefaultFolder        string

	// FilePath is the configuration file the snapshot was resolved from,
	// empty when no recognized file was found.
	FilePath    string
	Provenance  map[string]Source
	Diagnostics []string

	values map[string]string
}

// Values returns the canonical string form of every known setting.
func (r *Resolved) Values() map[string]string {
	out := make(map[string]string, len(r.values))
	for key, value := range r.values {
		out[key] = value
	}
	return out
}

// Value returns the canonical string form of one known setting.
func (r *Resolved) Value(key string) (string, bool) {
	value, ok := r.values[key]
	return value, ok
}

// ImagesDir returns the configured image folder with tilde expansion applied.
func (r *Resolved) ImagesDir() (string, error) {
	return expandPath(r.DefaultFolder)
}

// Resolve computes the effective configuration by scanning candidatePaths in
// priority order for the first file carrying a [slideshow] table, merging per
// field (file > store > default), re-validating cross-field invariants, and
// syncing the merged result back into the store when a file was found.
// Malformed files are skipped with a diagnostic, never fatal.
func Resolve(ctx context.Context, candidatePaths []string, store SettingsWriter) (*Resolved, error) {
	if store == nil {
		return nil, errors.New("resolve requires a settings store")
	}

	fileValues, filePath, diags := scanFiles(candidatePaths)

	stored, err := store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read settings store: %w", err)
	}

	resolved := merge(fileValues, stored, filePath, diags)

	if filePath != "" {
		if err := store.UpsertMany(ctx, resolved.values); err != nil {
			return nil, fmt.Errorf("sync resolved settings to store: %w", err)
		}
	}
	return resolved, nil
}

// FromStore resolves the effective configuration from the store and built-in
// defaults only, without consulting any file. This is the live view used
// after startup: the store is the single channel between processes, and file
// values re-enter it only through an explicit sync.
func FromStore(ctx context.Context, store SettingsReader) (*Resolved, error) {
	if store == nil {
		return nil, errors.New("resolve requires a settings store")
	}
	stored, err := store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read settings store: %w", err)
	}
	return merge(nil, stored, "", nil), nil
}

// scanFiles returns the [slideshow] values of the first recognized candidate.
func scanFiles(candidatePaths []string) (map[string]string, string, []string) {
	var diags []string
	for _, path := range candidatePaths {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		values, err := loadSlideshowTable(path)
		if err != nil {
			diags = append(diags, fmt.Sprintf("skipping %s: %v", path, err))
			continue
		}
		if values == nil {
			diags = append(diags, fmt.Sprintf("skipping %s: no [slideshow] table", path))
			continue
		}
		return values, path, diags
	}
	return nil, "", diags
}

// loadSlideshowTable parses the [slideshow] table of a TOML file into raw
// string values. A nil map with nil error means the file parses but carries
// no recognized section.
func loadSlideshowTable(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	table, ok := doc["slideshow"].(map[string]any)
	if !ok {
		return nil, nil
	}
	values := make(map[string]string, len(table))
	for key, raw := range table {
		values[key] = stringify(raw)
	}
	return values, nil
}

func stringify(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// merge applies the per-field layering and the post-merge invariant pass.
func merge(fileValues, stored map[string]string, filePath string, diags []string) *Resolved {
	resolved := &Resolved{
		FilePath:    filePath,
		Provenance:  make(map[string]Source, len(schema)),
		Diagnostics: diags,
		values:      make(map[string]string, len(schema)),
	}

	for _, setting := range schema {
		value, source := pickLayer(setting, fileValues, stored, resolved)
		resolved.values[setting.Key] = value
		resolved.Provenance[setting.Key] = source
	}

	for key := range fileValues {
		if _, known := schemaByKey[key]; !known {
			resolved.Diagnostics = append(resolved.Diagnostics,
				fmt.Sprintf("ignoring unknown setting %q in %s", key, filePath))
		}
	}

	resolved.typeFields()
	resolved.clampInvariants()
	return resolved
}

// pickLayer returns the canonical value from the highest-priority layer that
// supplies a parseable value for the setting, falling through with a
// diagnostic otherwise. Defaults always parse.
func pickLayer(setting Setting, fileValues, stored map[string]string, resolved *Resolved) (string, Source) {
	if raw, ok := fileValues[setting.Key]; ok {
		if value, err := checkValue(setting, raw); err == nil {
			return value, SourceFile
		} else {
			resolved.Diagnostics = append(resolved.Diagnostics,
				fmt.Sprintf("file value for %s ignored: %v", setting.Key, err))
		}
	}
	if raw, ok := stored[setting.Key]; ok {
		if value, err := checkValue(setting, raw); err == nil {
			return value, SourceStore
		} else {
			resolved.Diagnostics = append(resolved.Diagnostics,
				fmt.Sprintf("stored value for %s ignored: %v", setting.Key, err))
		}
	}
	return setting.Default, SourceDefault
}

func (r *Resolved) typeFields() {
	r.BackgroundColor = r.values[KeyBackgroundColor]
	r.IntervalSeconds, _ = strconv.Atoi(r.values[KeyDefaultInterval])
	r.StartFullscreen, _ = ParseBool(r.values[KeyStartFullscreen])
	r.EnableManualControls, _ = ParseBool(r.values[KeyEnableManualControls])
	r.ImageExtensions = ParseList(r.values[KeyImageExtensions])
	r.EnableInky, _ = ParseBool(r.values[KeyEnableInky])
	r.DefaultFolder = r.values[KeyDefaultFolder]
}

// clampInvariants corrects cross-field violations that survived the merge.
// Clamping (rather than failing resolution) keeps an unattended display
// running; the provenance mark makes the correction visible to operators.
func (r *Resolved) clampInvariants() {
	if r.EnableInky && r.IntervalSeconds < MinInkyIntervalSeconds {
		r.IntervalSeconds = MinInkyIntervalSeconds
		r.values[KeyDefaultInterval] = strconv.Itoa(MinInkyIntervalSeconds)
		r.Provenance[KeyDefaultInterval] = SourceCorrected
		r.Diagnostics = append(r.Diagnostics,
			fmt.Sprintf("default_interval raised to %d: enable_inky is true", MinInkyIntervalSeconds))
	}
	if strings.TrimSpace(r.DefaultFolder) == "" {
		r.DefaultFolder = defaultImagesFolder
		r.values[KeyDefaultFolder] = defaultImagesFolder
		r.Provenance[KeyDefaultFolder] = SourceCorrected
	}
}
