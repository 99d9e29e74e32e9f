package provider

import "fmt"

// FieldType describes how a configuration field should be presented.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldPassword FieldType = "password"
	FieldNumber   FieldType = "number"
	FieldBoolean  FieldType = "boolean"
)

// ConfigField describes one configuration entry a provider requires.
type ConfigField struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
}

// Descriptor is the static metadata for a provider. Immutable after
// registration; Name is the stable lookup key across runs.
type Descriptor struct {
	Name        string        `json:"name"`
	DisplayName string        `json:"displayName"`
	Description string        `json:"description"`
	Fields      []ConfigField `json:"fields"`
}

// Field returns the descriptor entry for key.
func (d Descriptor) Field(key string) (ConfigField, bool) {
	for _, field := range d.Fields {
		if field.Key == key {
			return field, true
		}
	}
	return ConfigField{}, false
}

// Status classifies the result of a refresh operation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailure Status = "failure"
)

// maxOutcomeErrors bounds the per-asset error list carried in an Outcome.
const maxOutcomeErrors = 10

// Outcome reports the result of one refresh call. It is produced fresh on
// every call and never persisted.
type Outcome struct {
	Status     Status   `json:"status"`
	Message    string   `json:"message"`
	Downloaded int      `json:"downloaded"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	Total      int      `json:"total"`
	Errors     []string `json:"errors,omitempty"`
}

// Failure builds a failure outcome with the given message.
func Failure(format string, args ...any) Outcome {
	return Outcome{Status: StatusFailure, Message: fmt.Sprintf(format, args...)}
}

// Summarize derives the overall outcome from per-asset counters. Per the
// refresh contract, individual download failures degrade the outcome to
// partial rather than failing the whole operation, as long as anything was
// downloaded or skipped.
func Summarize(downloaded, skipped, failed, total int, errs []string) Outcome {
	if len(errs) > maxOutcomeErrors {
		errs = errs[:maxOutcomeErrors]
	}
	out := Outcome{
		Downloaded: downloaded,
		Skipped:    skipped,
		Failed:     failed,
		Total:      total,
		Errors:     errs,
	}
	switch {
	case total == 0:
		out.Status = StatusSuccess
		out.Message = "no images found in the source"
	case failed == 0:
		out.Status = StatusSuccess
		out.Message = fmt.Sprintf("downloaded %d images (%d skipped)", downloaded, skipped)
	case downloaded > 0 || skipped > 0:
		out.Status = StatusPartial
		out.Message = fmt.Sprintf("downloaded %d images, %d failed, %d skipped", downloaded, failed, skipped)
	default:
		out.Status = StatusFailure
		out.Message = fmt.Sprintf("all %d downloads failed", failed)
	}
	return out
}
