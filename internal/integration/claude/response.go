package claude

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/colonyops/goodvibes/internal/core/tagging"
)

// MaxSuggestions caps the single-session result list.
const MaxSuggestions = 10

// envelope is the --output-format json result object.
type envelope struct {
	Type             string          `json:"type"`
	Subtype          string          `json:"subtype"`
	IsError          bool            `json:"is_error"`
	Result           string          `json:"result"`
	SessionID        string          `json:"session_id"`
	StructuredOutput json.RawMessage `json:"structured_output"`
}

// rawCandidate uses pointers so a missing field is distinguishable from a
// zero value.
type rawCandidate struct {
	Name       *string  `json:"name"`
	Confidence *float64 `json:"confidence"`
	Reasoning  *string  `json:"reasoning"`
	Category   *string  `json:"category"`
}

func parseEnvelope(raw []byte) (envelope, error) {
	var env envelope
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return env, fmt.Errorf("%w: empty output", ErrMalformedResponse)
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if env.IsError {
		return env, &ResultError{Subtype: env.Subtype, Result: env.Result}
	}
	if isAbsent(env.StructuredOutput) {
		return env, ErrMissingStructuredOutput
	}
	return env, nil
}

// ParseSuggestions decodes single-session CLI output. Every entry must be
// valid; one bad entry fails the whole call.
func ParseSuggestions(raw []byte, log zerolog.Logger) ([]tagging.Candidate, error) {
	env, err := parseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	return parseSuggestions(env, log)
}

func parseSuggestions(env envelope, log zerolog.Logger) ([]tagging.Candidate, error) {
	var out struct {
		Tags *[]json.RawMessage `json:"tags"`
	}
	if err := json.Unmarshal(env.StructuredOutput, &out); err != nil {
		return nil, fmt.Errorf("%w: structured_output: %v", ErrMalformedResponse, err)
	}
	if out.Tags == nil {
		return nil, fmt.Errorf("%w: tags field missing", ErrMissingStructuredOutput)
	}

	candidates, err := decodeCandidates(*out.Tags)
	if err != nil {
		return nil, err
	}

	if len(candidates) > MaxSuggestions {
		log.Warn().
			Int("count", len(candidates)).
			Int("max", MaxSuggestions).
			Msg("truncating suggestion list")
		candidates = candidates[:MaxSuggestions]
	}
	return candidates, nil
}

// ParseBatchSuggestions decodes batch CLI output. The result contains every
// id in ids; a session that is missing from the output or carries an invalid
// entry maps to an empty slice without affecting the others.
func ParseBatchSuggestions(raw []byte, ids []string, log zerolog.Logger) (map[string][]tagging.Candidate, error) {
	env, err := parseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	return parseBatchSuggestions(env, ids, log)
}

func parseBatchSuggestions(env envelope, ids []string, log zerolog.Logger) (map[string][]tagging.Candidate, error) {
	var out struct {
		Sessions *[]json.RawMessage `json:"sessions"`
	}
	if err := json.Unmarshal(env.StructuredOutput, &out); err != nil {
		return nil, fmt.Errorf("%w: structured_output: %v", ErrMalformedResponse, err)
	}
	if out.Sessions == nil {
		return nil, fmt.Errorf("%w: sessions field missing", ErrMissingStructuredOutput)
	}

	results := make(map[string][]tagging.Candidate, len(ids))
	for _, id := range ids {
		results[id] = []tagging.Candidate{}
	}
	seen := make(map[string]bool, len(ids))

	for i, entryRaw := range *out.Sessions {
		var entry struct {
			SessionID string            `json:"sessionId"`
			Tags      []json.RawMessage `json:"tags"`
		}
		if err := json.Unmarshal(entryRaw, &entry); err != nil {
			log.Warn().Int("index", i).Err(err).Msg("skipping unreadable batch entry")
			continue
		}

		if _, requested := results[entry.SessionID]; !requested {
			log.Warn().Str("session_id", entry.SessionID).Msg("ignoring suggestions for unrequested session")
			continue
		}
		if seen[entry.SessionID] {
			log.Warn().Str("session_id", entry.SessionID).Msg("ignoring duplicate batch entry")
			continue
		}
		seen[entry.SessionID] = true

		candidates, err := decodeCandidates(entry.Tags)
		if err != nil {
			log.Warn().Str("session_id", entry.SessionID).Err(err).Msg("discarding invalid suggestions for session")
			continue
		}
		results[entry.SessionID] = candidates
	}

	for _, id := range ids {
		if !seen[id] {
			log.Warn().Str("session_id", id).Msg("session missing from batch response")
		}
	}

	return results, nil
}

func decodeCandidates(entries []json.RawMessage) ([]tagging.Candidate, error) {
	candidates := make([]tagging.Candidate, 0, len(entries))
	for i, entry := range entries {
		c, err := decodeCandidate(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: suggestion %d: %v", ErrMalformedResponse, i, err)
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func decodeCandidate(entry json.RawMessage) (tagging.Candidate, error) {
	var rc rawCandidate
	if err := json.Unmarshal(entry, &rc); err != nil {
		return tagging.Candidate{}, err
	}
	if rc.Name == nil {
		return tagging.Candidate{}, fmt.Errorf("name is required")
	}
	if rc.Reasoning == nil {
		return tagging.Candidate{}, fmt.Errorf("reasoning is required for %q", *rc.Name)
	}
	if rc.Confidence == nil {
		return tagging.Candidate{}, fmt.Errorf("confidence is required for %q", *rc.Name)
	}

	c := tagging.Candidate{
		Name:       *rc.Name,
		Confidence: *rc.Confidence,
		Reasoning:  *rc.Reasoning,
	}
	if rc.Category != nil {
		c.Category = *rc.Category
	}
	if err := c.Validate(); err != nil {
		return tagging.Candidate{}, err
	}
	return c.Normalize(), nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
