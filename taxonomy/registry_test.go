package taxonomy

import (
	"testing"
)

func TestNewCategoryHasStandardFields(t *testing.T) {
	r := NewRegistry()

	cat := r.AddCategory("daily", "Gardening")
	schema, ok := r.Schema(cat.Key)
	if !ok {
		t.Fatalf("schema for new category %q not found", cat.Key)
	}

	if len(schema) != 4 {
		t.Errorf("new category should have exactly the 4 standard fields, got %d", len(schema))
	}
	for _, key := range []string{FieldKeySummary, FieldKeyTime, FieldKeyDuration, FieldKeyNotes} {
		found := false
		for _, f := range schema {
			if f.Key == key {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("standard field %q missing from new category", key)
		}
	}
}

func TestRemoveStandardFieldRejected(t *testing.T) {
	r := NewRegistry()

	for _, key := range []string{FieldKeySummary, FieldKeyTime, FieldKeyDuration, FieldKeyNotes} {
		if err := r.RemoveField("diet", key); err == nil {
			t.Errorf("removing standard field %q should be rejected", key)
		}
	}

	schema, _ := r.Schema("diet")
	for _, key := range []string{FieldKeySummary, FieldKeyTime, FieldKeyDuration, FieldKeyNotes} {
		found := false
		for _, f := range schema {
			if f.Key == key {
				found = true
			}
		}
		if !found {
			t.Errorf("standard field %q missing after rejected removal", key)
		}
	}
}

func TestRemoveUserField(t *testing.T) {
	r := NewRegistry()

	if err := r.RemoveField("finance_tracking", "method"); err != nil {
		t.Fatalf("removing user-defined field failed: %v", err)
	}
	schema, _ := r.Schema("finance_tracking")
	for _, f := range schema {
		if f.Key == "method" {
			t.Errorf("field %q still present after removal", "method")
		}
	}
}

func TestDeleteCoreGroupRejected(t *testing.T) {
	r := NewRegistry()
	before := r.Groups()

	if err := r.DeleteGroup("finance"); err == nil {
		t.Fatal("deleting a core group should be rejected")
	}

	after := r.Groups()
	if len(after) != len(before) {
		t.Fatalf("group list changed after rejected delete: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if after[i] != before[i] {
			t.Errorf("group %d changed after rejected delete: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestDeleteUserGroup(t *testing.T) {
	r := NewRegistry()
	g := r.AddGroup("Travel")

	if err := r.DeleteGroup(g.ID); err != nil {
		t.Fatalf("deleting user group failed: %v", err)
	}
	for _, kept := range r.Groups() {
		if kept.ID == g.ID {
			t.Errorf("group %q still present after delete", g.ID)
		}
	}
}

func TestAddFieldInsertsBeforeNotes(t *testing.T) {
	r := NewRegistry()

	field, err := r.AddField("movie")
	if err != nil {
		t.Fatalf("AddField failed: %v", err)
	}

	schema, _ := r.Schema("movie")
	fieldIdx, notesIdx := -1, -1
	for i, f := range schema {
		switch f.Key {
		case field.Key:
			fieldIdx = i
		case FieldKeyNotes:
			notesIdx = i
		}
	}
	if fieldIdx == -1 {
		t.Fatalf("new field %q not found in schema", field.Key)
	}
	if notesIdx != fieldIdx+1 {
		t.Errorf("new field should sit immediately before notes: field at %d, notes at %d", fieldIdx, notesIdx)
	}
}

func TestUpdateFieldProtectsStandardTypeAndKey(t *testing.T) {
	r := NewRegistry()

	err := r.UpdateField("diet", FieldKeyTime, FieldDef{Key: "when", Label: "When", Type: FieldDate, Required: true})
	if err != nil {
		t.Fatalf("UpdateField failed: %v", err)
	}

	schema, _ := r.Schema("diet")
	for _, f := range schema {
		if f.Key == "when" {
			t.Fatal("standard field key must not be renamed")
		}
		if f.Key == FieldKeyTime {
			if f.Type != FieldText {
				t.Errorf("standard field type changed to %q", f.Type)
			}
			if f.Label != "When" {
				t.Errorf("label should be editable on standard fields, got %q", f.Label)
			}
		}
	}
}

func TestUpdateFieldRejectsDuplicateKey(t *testing.T) {
	r := NewRegistry()

	// finance_tracking carries the user-defined fields amount and method
	err := r.UpdateField("finance_tracking", "method", FieldDef{Key: "amount", Label: "Method", Type: FieldText})
	if err == nil {
		t.Fatal("renaming a field onto an existing key should be rejected")
	}

	schema, _ := r.Schema("finance_tracking")
	amounts := 0
	methodPresent := false
	for _, f := range schema {
		if f.Key == "amount" {
			amounts++
		}
		if f.Key == "method" {
			methodPresent = true
		}
	}
	if amounts != 1 {
		t.Errorf("got %d fields keyed %q, want 1", amounts, "amount")
	}
	if !methodPresent {
		t.Error("original field should be untouched after rejected rename")
	}
}

func TestAddCategoryAllocatesUniqueKeys(t *testing.T) {
	r := NewRegistry()

	first := r.AddCategory("daily", "Walking")
	second := r.AddCategory("daily", "Walking")
	if first.Key == second.Key {
		t.Errorf("duplicate labels must yield distinct keys, both got %q", first.Key)
	}
}

func TestAddCategoryNonASCIILabel(t *testing.T) {
	r := NewRegistry()

	cat := r.AddCategory("daily", "散步")
	if cat.Key == "" {
		t.Fatal("non-ASCII label produced an empty key")
	}
	if _, ok := r.Schema(cat.Key); !ok {
		t.Errorf("schema missing for category %q", cat.Key)
	}
}

func TestReorderGroup(t *testing.T) {
	r := NewRegistry()
	groups := r.Groups()
	first, second := groups[0].ID, groups[1].ID

	r.ReorderGroup(first, +1)
	groups = r.Groups()
	if groups[0].ID != second || groups[1].ID != first {
		t.Errorf("expected swap of first two groups, got %q, %q", groups[0].ID, groups[1].ID)
	}

	// moving the top group up is a no-op
	r.ReorderGroup(groups[0].ID, -1)
	if r.Groups()[0].ID != second {
		t.Errorf("moving top group up should not change order")
	}
}

func TestRestoreReseedsMissingStandardFields(t *testing.T) {
	r := Restore(nil, nil, map[string]FieldSchema{
		"diet": {
			{Key: FieldKeySummary, Label: "Summary", Type: FieldText, Required: true},
			{Key: "meal", Label: "Meal", Type: FieldSelect, Options: []string{"lunch"}},
		},
	})

	schema, ok := r.Schema("diet")
	if !ok {
		t.Fatal("diet schema missing after restore")
	}
	for _, key := range []string{FieldKeyTime, FieldKeyDuration, FieldKeyNotes} {
		found := false
		for _, f := range schema {
			if f.Key == key {
				found = true
			}
		}
		if !found {
			t.Errorf("standard field %q not re-seeded on restore", key)
		}
	}
}
