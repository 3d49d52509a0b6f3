package session

import (
	"fmt"
	"testing"
	"time"
)

func msgAt(role Role, text string, ts time.Time) ChatMessage {
	return ChatMessage{ID: NewMessageID(), Role: role, Text: text, Timestamp: ts}
}

func TestSelectContextKeepsOnlyUserMessages(t *testing.T) {
	now := time.Date(2024, 5, 20, 15, 0, 0, 0, time.Local)
	messages := []ChatMessage{
		msgAt(RoleUser, "one", now.Add(-3*time.Hour)),
		msgAt(RoleModel, "reply", now.Add(-3*time.Hour)),
		msgAt(RoleSystem, "saved", now.Add(-3*time.Hour)),
		msgAt(RoleUser, "two", now.Add(-1*time.Hour)),
	}

	out := SelectContext(messages, ContextPolicy{Mode: ModeGlobal, Rounds: UnlimitedRounds}, now)

	if len(out) != 2 {
		t.Fatalf("got %d messages, want 2", len(out))
	}
	if out[0].Text != "one" || out[1].Text != "two" {
		t.Errorf("order not preserved: %q, %q", out[0].Text, out[1].Text)
	}
}

func TestSelectContextTodayMode(t *testing.T) {
	now := time.Date(2024, 5, 20, 15, 0, 0, 0, time.Local)
	yesterday := now.AddDate(0, 0, -1)
	messages := []ChatMessage{
		msgAt(RoleUser, "yesterday", yesterday),
		msgAt(RoleUser, "today early", time.Date(2024, 5, 20, 0, 10, 0, 0, time.Local)),
		msgAt(RoleUser, "today late", time.Date(2024, 5, 20, 23, 50, 0, 0, time.Local)),
	}

	out := SelectContext(messages, ContextPolicy{Mode: ModeToday, Rounds: UnlimitedRounds}, now)

	if len(out) != 2 {
		t.Fatalf("got %d messages, want 2", len(out))
	}
	for _, msg := range out {
		if msg.Text == "yesterday" {
			t.Error("yesterday's message leaked into today mode")
		}
	}
}

func TestSelectContextWeekMode(t *testing.T) {
	now := time.Date(2024, 5, 20, 9, 0, 0, 0, time.Local)
	messages := []ChatMessage{
		msgAt(RoleUser, "last week", now.AddDate(0, 0, -8)),
		msgAt(RoleUser, "just before midnight", time.Date(2024, 5, 19, 23, 59, 0, 0, time.Local)),
		msgAt(RoleUser, "today", now.Add(-2*time.Hour)),
		msgAt(RoleUser, "in six days", now.AddDate(0, 0, 6)),
	}

	out := SelectContext(messages, ContextPolicy{Mode: ModeWeek, Rounds: UnlimitedRounds}, now)

	if len(out) != 2 {
		t.Fatalf("got %d messages, want 2", len(out))
	}
	if out[0].Text != "today" || out[1].Text != "in six days" {
		t.Errorf("unexpected selection: %q, %q", out[0].Text, out[1].Text)
	}
}

func TestSelectContextCustomRange(t *testing.T) {
	now := time.Date(2024, 5, 20, 9, 0, 0, 0, time.Local)
	messages := []ChatMessage{
		msgAt(RoleUser, "before", time.Date(2024, 5, 9, 23, 0, 0, 0, time.Local)),
		msgAt(RoleUser, "first day", time.Date(2024, 5, 10, 0, 30, 0, 0, time.Local)),
		msgAt(RoleUser, "last day", time.Date(2024, 5, 12, 23, 30, 0, 0, time.Local)),
		msgAt(RoleUser, "after", time.Date(2024, 5, 13, 0, 30, 0, 0, time.Local)),
	}
	policy := ContextPolicy{Mode: ModeCustom, Rounds: UnlimitedRounds, CustomStart: "2024-05-10", CustomEnd: "2024-05-12"}

	out := SelectContext(messages, policy, now)

	if len(out) != 2 {
		t.Fatalf("got %d messages, want 2", len(out))
	}
	if out[0].Text != "first day" || out[1].Text != "last day" {
		t.Errorf("unexpected selection: %q, %q", out[0].Text, out[1].Text)
	}
}

func TestSelectContextRoundsCap(t *testing.T) {
	now := time.Date(2024, 5, 20, 15, 0, 0, 0, time.Local)
	var messages []ChatMessage
	for i := 0; i < 10; i++ {
		messages = append(messages, msgAt(RoleUser, fmt.Sprintf("msg-%d", i), now.Add(time.Duration(i-10)*time.Minute)))
	}

	out := SelectContext(messages, ContextPolicy{Mode: ModeGlobal, Rounds: 3}, now)

	if len(out) != 3 {
		t.Fatalf("got %d messages, want 3", len(out))
	}
	if out[0].Text != "msg-7" || out[2].Text != "msg-9" {
		t.Errorf("cap should keep the most recent messages, got %q..%q", out[0].Text, out[2].Text)
	}
}

func TestSelectContextUnlimitedRounds(t *testing.T) {
	now := time.Date(2024, 5, 20, 15, 0, 0, 0, time.Local)
	var messages []ChatMessage
	for i := 0; i < 50; i++ {
		messages = append(messages, msgAt(RoleUser, "m", now.Add(-time.Minute)))
	}

	out := SelectContext(messages, ContextPolicy{Mode: ModeGlobal, Rounds: UnlimitedRounds}, now)

	if len(out) != 50 {
		t.Errorf("infinite mode should keep everything, got %d of 50", len(out))
	}
}

func TestSelectContextZeroRounds(t *testing.T) {
	now := time.Date(2024, 5, 20, 15, 0, 0, 0, time.Local)
	messages := []ChatMessage{msgAt(RoleUser, "m", now.Add(-time.Minute))}

	out := SelectContext(messages, ContextPolicy{Mode: ModeGlobal, Rounds: 0}, now)

	if len(out) != 0 {
		t.Errorf("zero rounds should select nothing, got %d", len(out))
	}
}
