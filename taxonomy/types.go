package taxonomy

// FieldType identifies how a field's value is entered and rendered
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldNumber      FieldType = "number"
	FieldSelect      FieldType = "select"
	FieldMultiSelect FieldType = "multiselect"
	FieldDate        FieldType = "date"
	FieldRating      FieldType = "rating"
)

// Group represents a display bucket for categories
// Array order is display order
type Group struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// CategoryMeta represents one category row; Key is the stable identifier
// referenced by entries and schema lookups
type CategoryMeta struct {
	Key   string `json:"key"`
	Group string `json:"group"`
	Label string `json:"label"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// FieldDef describes a single field in a category's schema
type FieldDef struct {
	Key         string    `json:"key"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Options     []string  `json:"options,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
}

// FieldSchema is the ordered field list of one category
type FieldSchema []FieldDef

// Standard field keys present in every category's schema. They cannot be
// removed and their type/key cannot be changed.
const (
	FieldKeySummary  = "summary"
	FieldKeyTime     = "time"
	FieldKeyDuration = "duration"
	FieldKeyNotes    = "notes"
)

// IsStandardField reports whether key is one of the four protected fields
func IsStandardField(key string) bool {
	switch key {
	case FieldKeySummary, FieldKeyTime, FieldKeyDuration, FieldKeyNotes:
		return true
	}
	return false
}

// Snapshot is an immutable copy of the registry handed to consumers
// (the extraction pipeline renders its target shape from it)
type Snapshot struct {
	Groups     []Group
	Categories []CategoryMeta
	Schemas    map[string]FieldSchema
}

// HasCategory reports whether key is a known category key
func (s Snapshot) HasCategory(key string) bool {
	_, ok := s.Schemas[key]
	return ok
}

// Schema returns the field schema for a category key
func (s Snapshot) Schema(key string) (FieldSchema, bool) {
	schema, ok := s.Schemas[key]
	return schema, ok
}
