package session

// Settings holds the runtime chat/AI configuration. It is loaded from the
// persisted state at startup, defaulted when absent, and written back in
// full on every change.
type Settings struct {
	ChatEnabled      bool          `json:"chat_enabled"`
	OrganizerEnabled bool          `json:"organizer_enabled"`
	Persona          string        `json:"persona"`
	BatchSize        int           `json:"batch_size"`
	Context          ContextPolicy `json:"context"`
}

// defaultPersona is the system prompt for the conversational call
const defaultPersona = `You are a warm, concise companion for a personal activity log.
Respond naturally to what the user tells you about their day, in the user's own language.
Do not mention record keeping or structured data; another component handles that.`

// DefaultSettings returns the settings used when nothing is persisted yet
func DefaultSettings() Settings {
	return Settings{
		ChatEnabled:      true,
		OrganizerEnabled: true,
		Persona:          defaultPersona,
		BatchSize:        10,
		Context: ContextPolicy{
			Mode:   ModeToday,
			Rounds: 20,
		},
	}
}
