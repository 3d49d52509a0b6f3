package taxonomy

import (
	"fmt"
	"strings"
)

// Registry owns the user-editable taxonomy: groups, categories and their
// field schemas. All mutations are synchronous whole-value replacements;
// the single caller is responsible for persisting after each mutation.
type Registry struct {
	groups     []Group
	categories []CategoryMeta
	schemas    map[string]FieldSchema
}

// NewRegistry creates a registry populated with the built-in taxonomy
func NewRegistry() *Registry {
	return &Registry{
		groups:     DefaultGroups(),
		categories: DefaultCategories(),
		schemas:    DefaultSchemas(),
	}
}

// Restore creates a registry from persisted state. Nil slices fall back to
// defaults. Persisted schemas are shallow-merged onto the defaults: a stored
// schema replaces the default one wholesale, but the standard fields are
// re-seeded if a stored schema is missing any of them.
func Restore(groups []Group, categories []CategoryMeta, schemas map[string]FieldSchema) *Registry {
	r := NewRegistry()
	if len(groups) > 0 {
		r.groups = groups
	}
	if len(categories) > 0 {
		r.categories = categories
		r.schemas = make(map[string]FieldSchema, len(categories))
		for _, cat := range categories {
			r.schemas[cat.Key] = standardFields()
		}
	}
	for key, schema := range schemas {
		r.schemas[key] = ensureStandardFields(schema)
	}
	return r
}

// ensureStandardFields re-inserts any missing standard field and forces the
// protected type on the ones present
func ensureStandardFields(schema FieldSchema) FieldSchema {
	present := make(map[string]bool, len(schema))
	for i, f := range schema {
		if IsStandardField(f.Key) {
			present[f.Key] = true
			schema[i].Type = FieldText
		}
	}
	for _, std := range standardFields() {
		if !present[std.Key] {
			schema = append(schema, std)
		}
	}
	return schema
}

// Snapshot returns a deep copy of the current taxonomy
func (r *Registry) Snapshot() Snapshot {
	snap := Snapshot{
		Groups:     make([]Group, len(r.groups)),
		Categories: make([]CategoryMeta, len(r.categories)),
		Schemas:    make(map[string]FieldSchema, len(r.schemas)),
	}
	copy(snap.Groups, r.groups)
	copy(snap.Categories, r.categories)
	for key, schema := range r.schemas {
		fields := make(FieldSchema, len(schema))
		copy(fields, schema)
		snap.Schemas[key] = fields
	}
	return snap
}

// Groups returns the group list in display order
func (r *Registry) Groups() []Group {
	groups := make([]Group, len(r.groups))
	copy(groups, r.groups)
	return groups
}

// Categories returns all category rows
func (r *Registry) Categories() []CategoryMeta {
	categories := make([]CategoryMeta, len(r.categories))
	copy(categories, r.categories)
	return categories
}

// Schema returns the field schema for a category
func (r *Registry) Schema(categoryKey string) (FieldSchema, bool) {
	schema, ok := r.schemas[categoryKey]
	if !ok {
		return nil, false
	}
	fields := make(FieldSchema, len(schema))
	copy(fields, schema)
	return fields, true
}

// AddGroup appends a new group with a fresh unique id
func (r *Registry) AddGroup(label string) Group {
	group := Group{ID: r.uniqueGroupID(label), Label: label}
	r.groups = append(r.groups, group)
	return group
}

// DeleteGroup removes a group. Core groups are protected; deleting one is
// rejected and the group list is left unchanged. Categories referencing the
// removed group are kept (they simply stop being rendered).
func (r *Registry) DeleteGroup(id string) error {
	if IsCoreGroup(id) {
		return fmt.Errorf("group %q is built in and cannot be deleted", id)
	}
	for i, g := range r.groups {
		if g.ID == id {
			r.groups = append(r.groups[:i], r.groups[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("group %q not found", id)
}

// ReorderGroup moves a group one position up (direction < 0) or down
// (direction > 0). Moving past either end is a no-op.
func (r *Registry) ReorderGroup(id string, direction int) {
	for i, g := range r.groups {
		if g.ID != id {
			continue
		}
		j := i + 1
		if direction < 0 {
			j = i - 1
		}
		if j < 0 || j >= len(r.groups) {
			return
		}
		r.groups[i], r.groups[j] = r.groups[j], r.groups[i]
		return
	}
}

// AddCategory creates a category under a group, seeded with the standard
// fields only, and returns its freshly allocated key
func (r *Registry) AddCategory(groupID, label string) CategoryMeta {
	cat := CategoryMeta{
		Key:   r.uniqueCategoryKey(label),
		Group: groupID,
		Label: label,
		Color: "#94a3b8",
		Icon:  "📌",
	}
	r.categories = append(r.categories, cat)
	r.schemas[cat.Key] = standardFields()
	return cat
}

// DeleteCategory removes a category and its schema
func (r *Registry) DeleteCategory(key string) error {
	if _, ok := r.schemas[key]; !ok {
		return fmt.Errorf("category %q not found", key)
	}
	delete(r.schemas, key)
	for i, cat := range r.categories {
		if cat.Key == key {
			r.categories = append(r.categories[:i], r.categories[i+1:]...)
			break
		}
	}
	return nil
}

// AddField appends a new user-defined text field to a category's schema.
// The field is inserted immediately before the notes field when present.
func (r *Registry) AddField(categoryKey string) (FieldDef, error) {
	schema, ok := r.schemas[categoryKey]
	if !ok {
		return FieldDef{}, fmt.Errorf("category %q not found", categoryKey)
	}

	field := FieldDef{
		Key:   r.uniqueFieldKey(schema),
		Label: "New Field",
		Type:  FieldText,
	}

	inserted := false
	next := make(FieldSchema, 0, len(schema)+1)
	for _, f := range schema {
		if f.Key == FieldKeyNotes && !inserted {
			next = append(next, field)
			inserted = true
		}
		next = append(next, f)
	}
	if !inserted {
		next = append(next, field)
	}
	r.schemas[categoryKey] = next
	return field, nil
}

// UpdateField applies a patch to one field. For standard fields the key and
// type are protected; everything else on the patch is taken as-is.
func (r *Registry) UpdateField(categoryKey, fieldKey string, patch FieldDef) error {
	schema, ok := r.schemas[categoryKey]
	if !ok {
		return fmt.Errorf("category %q not found", categoryKey)
	}
	for i, f := range schema {
		if f.Key != fieldKey {
			continue
		}
		if IsStandardField(fieldKey) {
			patch.Key = f.Key
			patch.Type = f.Type
		} else if patch.Key == "" {
			patch.Key = f.Key
		}
		if patch.Key != f.Key {
			for _, other := range schema {
				if other.Key == patch.Key {
					return fmt.Errorf("field key %q already exists in category %q", patch.Key, categoryKey)
				}
			}
		}
		schema[i] = patch
		return nil
	}
	return fmt.Errorf("field %q not found in category %q", fieldKey, categoryKey)
}

// RemoveField deletes a user-defined field; standard fields are rejected
func (r *Registry) RemoveField(categoryKey, fieldKey string) error {
	if IsStandardField(fieldKey) {
		return fmt.Errorf("field %q is a standard field and cannot be removed", fieldKey)
	}
	schema, ok := r.schemas[categoryKey]
	if !ok {
		return fmt.Errorf("category %q not found", categoryKey)
	}
	for i, f := range schema {
		if f.Key == fieldKey {
			r.schemas[categoryKey] = append(schema[:i], schema[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("field %q not found in category %q", fieldKey, categoryKey)
}

// uniqueGroupID derives an id from the label, suffixing on collision
func (r *Registry) uniqueGroupID(label string) string {
	base := slugify(label)
	if base == "" {
		base = "group"
	}
	id := base
	for n := 2; r.hasGroup(id); n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	return id
}

// uniqueCategoryKey derives a key from the label, suffixing on collision
func (r *Registry) uniqueCategoryKey(label string) string {
	base := slugify(label)
	if base == "" {
		base = "category"
	}
	key := base
	for n := 2; ; n++ {
		if _, exists := r.schemas[key]; !exists {
			return key
		}
		key = fmt.Sprintf("%s_%d", base, n)
	}
}

// uniqueFieldKey allocates field_N unique within one schema
func (r *Registry) uniqueFieldKey(schema FieldSchema) string {
	taken := make(map[string]bool, len(schema))
	for _, f := range schema {
		taken[f.Key] = true
	}
	for n := 1; ; n++ {
		key := fmt.Sprintf("field_%d", n)
		if !taken[key] {
			return key
		}
	}
}

func (r *Registry) hasGroup(id string) bool {
	for _, g := range r.groups {
		if g.ID == id {
			return true
		}
	}
	return false
}

// slugify lowercases ASCII letters/digits and collapses everything else to
// underscores; non-ASCII labels (e.g. Chinese) produce an empty slug and the
// caller falls back to a generic base
func slugify(label string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, ch := range strings.ToLower(label) {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
			b.WriteRune(ch)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}
