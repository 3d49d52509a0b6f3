package taxonomy

// Core group ids exist from first launch and can never be deleted
var coreGroupIDs = map[string]bool{
	"daily":         true,
	"entertainment": true,
	"growth":        true,
	"finance":       true,
}

// IsCoreGroup reports whether id is a protected built-in group
func IsCoreGroup(id string) bool {
	return coreGroupIDs[id]
}

// standardFields returns a fresh copy of the four fields every category carries
func standardFields() FieldSchema {
	return FieldSchema{
		{Key: FieldKeySummary, Label: "Summary", Type: FieldText, Required: true},
		{Key: FieldKeyTime, Label: "Time", Type: FieldText, Required: true, Placeholder: "e.g. 12:30"},
		{Key: FieldKeyDuration, Label: "Duration", Type: FieldText, Placeholder: "e.g. 45min"},
		{Key: FieldKeyNotes, Label: "Notes", Type: FieldText},
	}
}

// DefaultGroups returns the built-in group list in display order
func DefaultGroups() []Group {
	return []Group{
		{ID: "daily", Label: "Daily Life"},
		{ID: "entertainment", Label: "Entertainment"},
		{ID: "growth", Label: "Study & Work"},
		{ID: "finance", Label: "Finance"},
	}
}

// DefaultCategories returns the built-in category rows
func DefaultCategories() []CategoryMeta {
	return []CategoryMeta{
		{Key: "diet", Group: "daily", Label: "Diet", Color: "#f59e0b", Icon: "🍜"},
		{Key: "exercise", Group: "daily", Label: "Exercise", Color: "#10b981", Icon: "🏃"},
		{Key: "sleep", Group: "daily", Label: "Sleep", Color: "#6366f1", Icon: "😴"},
		{Key: "mood", Group: "daily", Label: "Mood", Color: "#ec4899", Icon: "🙂"},
		{Key: "movie", Group: "entertainment", Label: "Movies", Color: "#ef4444", Icon: "🎬"},
		{Key: "book", Group: "entertainment", Label: "Reading", Color: "#8b5cf6", Icon: "📚"},
		{Key: "game", Group: "entertainment", Label: "Games", Color: "#0ea5e9", Icon: "🎮"},
		{Key: "study", Group: "growth", Label: "Study", Color: "#14b8a6", Icon: "✏️"},
		{Key: "work", Group: "growth", Label: "Work", Color: "#64748b", Icon: "💼"},
		{Key: "finance_tracking", Group: "finance", Label: "Income & Expenses", Color: "#eab308", Icon: "💰"},
	}
}

// DefaultSchemas returns the built-in field schemas keyed by category.
// Every schema starts with the standard fields; category-specific fields
// sit between duration and notes, matching where AddField inserts.
func DefaultSchemas() map[string]FieldSchema {
	schemas := make(map[string]FieldSchema)
	for _, cat := range DefaultCategories() {
		schemas[cat.Key] = standardFields()
	}

	extras := map[string][]FieldDef{
		"diet": {
			{Key: "meal", Label: "Meal", Type: FieldSelect, Options: []string{"breakfast", "lunch", "dinner", "snack"}},
		},
		"exercise": {
			{Key: "sport", Label: "Sport", Type: FieldText, Placeholder: "e.g. running"},
			{Key: "intensity", Label: "Intensity", Type: FieldRating},
		},
		"sleep": {
			{Key: "quality", Label: "Quality", Type: FieldRating},
		},
		"mood": {
			{Key: "score", Label: "Score", Type: FieldRating},
		},
		"movie": {
			{Key: "rating", Label: "Rating", Type: FieldRating},
		},
		"book": {
			{Key: "rating", Label: "Rating", Type: FieldRating},
			{Key: "progress", Label: "Progress", Type: FieldText, Placeholder: "e.g. ch. 4"},
		},
		"game": {
			{Key: "platform", Label: "Platform", Type: FieldSelect, Options: []string{"pc", "console", "mobile"}},
		},
		"study": {
			{Key: "subject", Label: "Subject", Type: FieldText},
		},
		"work": {
			{Key: "project", Label: "Project", Type: FieldText},
		},
		"finance_tracking": {
			{Key: "amount", Label: "Amount", Type: FieldNumber, Required: true, Unit: "元"},
			{Key: "method", Label: "Method", Type: FieldSelect, Options: []string{"cash", "card", "wechat", "alipay"}},
		},
	}

	for key, fields := range extras {
		schema := schemas[key]
		// insert before the trailing notes field
		schemas[key] = append(schema[:len(schema)-1], append(fields, schema[len(schema)-1])...)
	}

	return schemas
}
