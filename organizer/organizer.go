// Package organizer maps free-form user text to zero or more structured
// entries using the structured-inference capability. Extraction is advisory:
// the organizer never fails, it only produces fewer records.
package organizer

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"lifelog-assistant/llm"
	"lifelog-assistant/store"
	"lifelog-assistant/taxonomy"
	"lifelog-assistant/utils"
)

// Organizer builds extraction requests from the live taxonomy and validates
// the inference output into candidate entries
type Organizer struct {
	provider llm.Provider
	logger   *utils.Logger
}

// New creates an organizer on top of an inference provider
func New(provider llm.Provider, logger *utils.Logger) *Organizer {
	return &Organizer{provider: provider, logger: logger}
}

// candidate mirrors one element of the extraction response before validation
type candidate struct {
	Date     string         `json:"date"`
	Category string         `json:"category"`
	Event    string         `json:"event"`
	Details  map[string]any `json:"details"`
}

// envelope is the requested response shape; a bare array is also accepted
type envelope struct {
	Events []candidate `json:"events"`
}

// Extract maps text to candidate entries against the given taxonomy snapshot.
// It never returns an error: transport failures, cancellation and unparsable
// output all degrade to an empty result.
func (o *Organizer) Extract(ctx context.Context, text string, now time.Time, snap taxonomy.Snapshot) []store.Entry {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	messages := []llm.Message{
		{Role: "system", Content: buildPrompt(now, snap)},
		{Role: "user", Content: text},
	}

	raw, err := o.provider.ChatJSON(ctx, messages)
	if err != nil {
		if ctx.Err() == nil {
			o.logger.Warn("Extraction call failed: %v", err)
		}
		return nil
	}
	if ctx.Err() != nil {
		// cancelled while waiting; discard whatever came back
		return nil
	}

	candidates := parseCandidates(raw)
	if len(candidates) == 0 {
		return nil
	}

	entries := make([]store.Entry, 0, len(candidates))
	for _, c := range candidates {
		entry, ok := o.materialize(c, now, snap)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// parseCandidates interprets the raw model output as a candidate list.
// Accepts the requested {"events": [...]} envelope, a bare JSON array, or a
// single object, with optional markdown code fences around any of them.
func parseCandidates(raw string) []candidate {
	raw = stripCodeFence(raw)
	if raw == "" {
		return nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err == nil && env.Events != nil {
		return env.Events
	}

	var list []candidate
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return list
	}

	var single candidate
	if err := json.Unmarshal([]byte(raw), &single); err == nil && single.Category != "" {
		return []candidate{single}
	}

	return nil
}

// stripCodeFence removes a surrounding ```json ... ``` fence if present
func stripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}

// materialize validates one candidate against the taxonomy and turns it into
// an entry with a fresh id. Invalid candidates are discarded silently.
func (o *Organizer) materialize(c candidate, now time.Time, snap taxonomy.Snapshot) (store.Entry, bool) {
	if !snap.HasCategory(c.Category) {
		o.logger.Debug("Discarding candidate with unknown category %q", c.Category)
		return store.Entry{}, false
	}

	event := strings.TrimSpace(c.Event)
	details := c.Details
	if details == nil {
		details = make(map[string]any)
	}
	summary, _ := details[taxonomy.FieldKeySummary].(string)
	if strings.TrimSpace(summary) == "" {
		if event == "" {
			return store.Entry{}, false
		}
		details[taxonomy.FieldKeySummary] = event
	}
	if event == "" {
		event = strings.TrimSpace(summary)
	}
	if _, ok := details[taxonomy.FieldKeyTime]; !ok {
		details[taxonomy.FieldKeyTime] = ""
	}

	date := c.Date
	if _, err := time.Parse("2006-01-02", date); err != nil {
		date = now.Format("2006-01-02")
	}

	return store.Entry{
		ID:       store.NewEntryID(),
		Date:     date,
		Category: c.Category,
		Event:    event,
		Details:  details,
	}, true
}
