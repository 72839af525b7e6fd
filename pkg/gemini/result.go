package gemini

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dnalab/dnachat/pkg/dna"
)

// ErrMalformed tags any backend payload that fails boundary validation:
// invalid JSON, or a required field absent from the response shape. Callers
// key their fallback behavior off this tag; a missing required field is
// never silently defaulted per-field.
var ErrMalformed = errors.New("malformed backend payload")

// Extraction is the validated result of a profile-extraction call.
type Extraction struct {
	Name    string
	Summary string
	Metrics dna.DNAMetrics
}

// TurnReply is the validated result of a conversational-turn call.
type TurnReply struct {
	ResponseText string
	Fallacies    []dna.DetectedFallacy
}

// parseExtraction validates the extraction payload. Required fields:
// summary, metrics.
func parseExtraction(raw []byte) (Extraction, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Extraction{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	summaryRaw, ok := fields["summary"]
	if !ok {
		return Extraction{}, fmt.Errorf("%w: missing required field %q", ErrMalformed, "summary")
	}
	metricsRaw, ok := fields["metrics"]
	if !ok {
		return Extraction{}, fmt.Errorf("%w: missing required field %q", ErrMalformed, "metrics")
	}

	var out Extraction
	if err := json.Unmarshal(summaryRaw, &out.Summary); err != nil {
		return Extraction{}, fmt.Errorf("%w: field %q: %v", ErrMalformed, "summary", err)
	}
	if err := json.Unmarshal(metricsRaw, &out.Metrics); err != nil {
		return Extraction{}, fmt.Errorf("%w: field %q: %v", ErrMalformed, "metrics", err)
	}
	if nameRaw, ok := fields["name"]; ok {
		if err := json.Unmarshal(nameRaw, &out.Name); err != nil {
			return Extraction{}, fmt.Errorf("%w: field %q: %v", ErrMalformed, "name", err)
		}
	}

	out.Metrics.Normalize()
	return out, nil
}

// parseTurnReply validates the turn payload. Required field: responseText.
// The fallacies array is optional, but every present entry must carry all
// three of its required fields.
func parseTurnReply(raw []byte) (TurnReply, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return TurnReply{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	textRaw, ok := fields["responseText"]
	if !ok {
		return TurnReply{}, fmt.Errorf("%w: missing required field %q", ErrMalformed, "responseText")
	}

	var out TurnReply
	if err := json.Unmarshal(textRaw, &out.ResponseText); err != nil {
		return TurnReply{}, fmt.Errorf("%w: field %q: %v", ErrMalformed, "responseText", err)
	}

	fallaciesRaw, ok := fields["fallacies"]
	if !ok {
		return out, nil
	}

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(fallaciesRaw, &entries); err != nil {
		return TurnReply{}, fmt.Errorf("%w: field %q: %v", ErrMalformed, "fallacies", err)
	}
	for i, entry := range entries {
		var f dna.DetectedFallacy
		for _, req := range []string{"name", "description", "exampleFromContext"} {
			if _, ok := entry[req]; !ok {
				return TurnReply{}, fmt.Errorf("%w: fallacies[%d] missing required field %q", ErrMalformed, i, req)
			}
		}
		if err := json.Unmarshal(entry["name"], &f.Name); err != nil {
			return TurnReply{}, fmt.Errorf("%w: fallacies[%d].name: %v", ErrMalformed, i, err)
		}
		if err := json.Unmarshal(entry["description"], &f.Description); err != nil {
			return TurnReply{}, fmt.Errorf("%w: fallacies[%d].description: %v", ErrMalformed, i, err)
		}
		if err := json.Unmarshal(entry["exampleFromContext"], &f.ExampleFromContext); err != nil {
			return TurnReply{}, fmt.Errorf("%w: fallacies[%d].exampleFromContext: %v", ErrMalformed, i, err)
		}
		out.Fallacies = append(out.Fallacies, f)
	}
	return out, nil
}
