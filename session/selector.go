package session

import (
	"time"
)

// ContextMode selects the date filter applied to conversation history
type ContextMode string

const (
	ModeGlobal ContextMode = "global"
	ModeToday  ContextMode = "today"
	ModeWeek   ContextMode = "week"
	ModeCustom ContextMode = "custom"
)

// UnlimitedRounds disables the depth cap ("infinite mode")
const UnlimitedRounds = 9999

// ContextPolicy controls which prior user utterances are visible to a call
type ContextPolicy struct {
	Mode        ContextMode `json:"mode"`
	Rounds      int         `json:"rounds"`
	CustomStart string      `json:"custom_start,omitempty"` // YYYY-MM-DD
	CustomEnd   string      `json:"custom_end,omitempty"`   // YYYY-MM-DD
}

// SelectContext picks the user messages visible to the next AI call.
// It is pure: deterministic, side-effect-free, and the output is an
// order-preserving subsequence of the input. Model and system turns are
// never fed back as history, only the user's own utterances.
func SelectContext(messages []ChatMessage, policy ContextPolicy, now time.Time) []ChatMessage {
	var selected []ChatMessage
	for _, msg := range messages {
		if msg.Role != RoleUser {
			continue
		}
		if inWindow(msg.Timestamp, policy, now) {
			selected = append(selected, msg)
		}
	}

	if policy.Rounds < UnlimitedRounds && len(selected) > policy.Rounds {
		if policy.Rounds <= 0 {
			return nil
		}
		selected = selected[len(selected)-policy.Rounds:]
	}
	return selected
}

// inWindow applies the policy's date filter to one timestamp
func inWindow(ts time.Time, policy ContextPolicy, now time.Time) bool {
	switch policy.Mode {
	case ModeToday:
		y1, m1, d1 := ts.Local().Date()
		y2, m2, d2 := now.Local().Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case ModeWeek:
		start := midnight(now)
		return !ts.Before(start) && ts.Before(start.AddDate(0, 0, 7))
	case ModeCustom:
		start, err := time.ParseInLocation("2006-01-02", policy.CustomStart, time.Local)
		if err != nil {
			return true
		}
		end, err := time.ParseInLocation("2006-01-02", policy.CustomEnd, time.Local)
		if err != nil {
			return true
		}
		return !ts.Before(start) && ts.Before(end.AddDate(0, 0, 1))
	default: // ModeGlobal
		return true
	}
}

// midnight truncates a timestamp to local midnight
func midnight(t time.Time) time.Time {
	y, m, d := t.Local().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
