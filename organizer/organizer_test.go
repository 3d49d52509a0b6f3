package organizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"lifelog-assistant/llm"
	"lifelog-assistant/taxonomy"
	"lifelog-assistant/utils"
)

// fakeProvider returns a canned response (or error) for every call
type fakeProvider struct {
	response string
	err      error
	calls    int
}

func (f *fakeProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	return f.ChatJSON(ctx, messages)
}

func (f *fakeProvider) ChatJSON(ctx context.Context, messages []llm.Message) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) ValidateConfig() error { return nil }

func testLogger(t *testing.T) *utils.Logger {
	t.Helper()
	logger, err := utils.NewLogger(t.TempDir() + "/test.log")
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger
}

func testTime() time.Time {
	return time.Date(2024, 5, 20, 14, 30, 0, 0, time.Local)
}

func TestExtractSplitsAtomicEvents(t *testing.T) {
	provider := &fakeProvider{response: `{"events": [
		{"date": "2024-05-20", "category": "finance_tracking", "event": "午饭",
		 "details": {"summary": "吃了午饭花了30块", "time": "12:00", "amount": -30}},
		{"date": "2024-05-20", "category": "movie", "event": "看电影",
		 "details": {"summary": "看了场电影", "time": ""}}
	]}`}
	o := New(provider, testLogger(t))

	entries := o.Extract(context.Background(), "吃了午饭花了30块然后看了场电影", testTime(), taxonomy.NewRegistry().Snapshot())

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Category != "finance_tracking" {
		t.Errorf("first entry category = %q, want finance_tracking", entries[0].Category)
	}
	amount, ok := entries[0].Details["amount"].(float64)
	if !ok || amount >= 0 {
		t.Errorf("expense amount should be negative, got %v", entries[0].Details["amount"])
	}
	if entries[1].Category != "movie" {
		t.Errorf("second entry category = %q, want movie", entries[1].Category)
	}
	if entries[0].ID == "" || entries[0].ID == entries[1].ID {
		t.Error("each entry should get a fresh unique id")
	}
}

func TestExtractDiscardsUnknownCategory(t *testing.T) {
	provider := &fakeProvider{response: `{"events": [
		{"date": "2024-05-20", "category": "teleportation", "event": "x", "details": {"summary": "x", "time": ""}},
		{"date": "2024-05-20", "category": "diet", "event": "breakfast", "details": {"summary": "breakfast", "time": "08:00"}}
	]}`}
	o := New(provider, testLogger(t))

	entries := o.Extract(context.Background(), "some text", testTime(), taxonomy.NewRegistry().Snapshot())

	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1 (unknown category discarded)", len(entries))
	}
	if entries[0].Category != "diet" {
		t.Errorf("surviving entry category = %q, want diet", entries[0].Category)
	}
}

func TestExtractNeverErrors(t *testing.T) {
	cases := []struct {
		name     string
		provider *fakeProvider
	}{
		{"transport failure", &fakeProvider{err: errors.New("connection refused")}},
		{"garbage output", &fakeProvider{response: "I had a nice chat but forgot the JSON"}},
		{"non-array json", &fakeProvider{response: `{"status": "ok"}`}},
		{"empty output", &fakeProvider{response: ""}},
	}

	for _, tc := range cases {
		o := New(tc.provider, testLogger(t))
		entries := o.Extract(context.Background(), "ate lunch", testTime(), taxonomy.NewRegistry().Snapshot())
		if len(entries) != 0 {
			t.Errorf("%s: got %d entries, want 0", tc.name, len(entries))
		}
	}
}

func TestExtractEmptyTextSkipsCall(t *testing.T) {
	provider := &fakeProvider{response: `{"events": []}`}
	o := New(provider, testLogger(t))

	entries := o.Extract(context.Background(), "   \n\t ", testTime(), taxonomy.NewRegistry().Snapshot())

	if len(entries) != 0 {
		t.Errorf("got %d entries for blank input, want 0", len(entries))
	}
	if provider.calls != 0 {
		t.Errorf("blank input should not reach the provider, got %d calls", provider.calls)
	}
}

func TestExtractAcceptsBareArrayAndCodeFence(t *testing.T) {
	provider := &fakeProvider{response: "```json\n[{\"date\": \"2024-05-19\", \"category\": \"movie\", \"event\": \"Dune\", \"details\": {\"summary\": \"watched Dune\", \"time\": \"20:00\"}}]\n```"}
	o := New(provider, testLogger(t))

	entries := o.Extract(context.Background(), "watched Dune yesterday", testTime(), taxonomy.NewRegistry().Snapshot())

	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Date != "2024-05-19" {
		t.Errorf("entry date = %q, want 2024-05-19", entries[0].Date)
	}
}

func TestExtractDefaultsBadDateAndMissingSummary(t *testing.T) {
	provider := &fakeProvider{response: `{"events": [
		{"date": "someday", "category": "diet", "event": "late snack", "details": {"time": "23:00"}}
	]}`}
	o := New(provider, testLogger(t))

	entries := o.Extract(context.Background(), "had a late snack", testTime(), taxonomy.NewRegistry().Snapshot())

	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Date != "2024-05-20" {
		t.Errorf("invalid date should fall back to the current date, got %q", entries[0].Date)
	}
	if entries[0].Details["summary"] != "late snack" {
		t.Errorf("summary should default to the event title, got %v", entries[0].Details["summary"])
	}
}

func TestExtractCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	provider := &fakeProvider{response: `{"events": [{"date": "2024-05-20", "category": "diet", "event": "x", "details": {"summary": "x", "time": ""}}]}`}
	o := New(provider, testLogger(t))

	entries := o.Extract(ctx, "ate lunch", testTime(), taxonomy.NewRegistry().Snapshot())

	if len(entries) != 0 {
		t.Errorf("cancelled extraction must yield no entries, got %d", len(entries))
	}
}
