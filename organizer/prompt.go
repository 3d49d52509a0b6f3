package organizer

import (
	"fmt"
	"strings"
	"time"

	"lifelog-assistant/taxonomy"
)

// organizerInstructions is the fixed system prompt for the extraction call.
// The response shape contract (JSON object wrapping an "events" array) is
// part of the request; the orchestrator still re-validates on receipt.
const organizerInstructions = `You are the record organizer of a personal activity log.
Extract every independent life event mentioned in the user's message into structured records.

Rules:
- Split the message into atomic events: one record per independent occurrence. "had lunch then watched a movie" is two records.
- Resolve relative dates ("yesterday", "last Friday") against the current date given below. Output dates as YYYY-MM-DD.
- "category" must be exactly one of the category keys listed below. Skip anything that fits no category.
- "details" keys must come from that category's field list. "summary" and "time" are mandatory; leave "time" as an empty string if the message gives no clue.
- For finance_tracking, "amount" is negative for expenses and positive for income.
- Reply with a JSON object of the form {"events": [...]} where each element is {"date", "category", "event", "details"}. "event" is a short title. If the message records nothing, reply {"events": []}.`

// renderTaxonomy renders every category's key and field list so the extraction
// target always matches the current user-defined schema
func renderTaxonomy(snap taxonomy.Snapshot) string {
	var b strings.Builder
	b.WriteString("Categories:\n")
	for _, cat := range snap.Categories {
		schema, ok := snap.Schema(cat.Key)
		if !ok {
			continue
		}
		fields := make([]string, 0, len(schema))
		for _, f := range schema {
			desc := fmt.Sprintf("%s(%s", f.Key, f.Type)
			if f.Required {
				desc += ", required"
			}
			if len(f.Options) > 0 {
				desc += ", one of: " + strings.Join(f.Options, "/")
			}
			if f.Unit != "" {
				desc += ", unit: " + f.Unit
			}
			desc += ")"
			fields = append(fields, desc)
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", cat.Key, cat.Label, strings.Join(fields, ", "))
	}
	return b.String()
}

// buildPrompt assembles the full extraction instructions for one call
func buildPrompt(now time.Time, snap taxonomy.Snapshot) string {
	var b strings.Builder
	b.WriteString(organizerInstructions)
	b.WriteString("\n\nCurrent date and time: ")
	b.WriteString(now.Format("2006-01-02 15:04 Monday"))
	b.WriteString("\n\n")
	b.WriteString(renderTaxonomy(snap))
	return b.String()
}
