// Package session sequences the assistant's turns: it owns the conversation
// log, drives the conversational and extraction calls, links produced entries
// back to their originating message, and supports cancellation, regeneration
// and undo.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"lifelog-assistant/llm"
	"lifelog-assistant/organizer"
	"lifelog-assistant/store"
	"lifelog-assistant/taxonomy"
	"lifelog-assistant/utils"
)

// ErrBusy is returned when a turn is started while another is in flight
var ErrBusy = errors.New("a turn is already in flight")

// Persisted collection keys in the state store
const (
	stateKeyMessages   = "chat_messages"
	stateKeyEntries    = "entries"
	stateKeySettings   = "chat_settings"
	stateKeyGroups     = "groups"
	stateKeyCategories = "categories"
	stateKeySchemas    = "field_schemas"
)

// StateStore persists one logical collection as a whole value per key
type StateStore interface {
	SaveState(key string, value any) error
	LoadState(key string, out any) (bool, error)
}

// AuditLog captures every raw user utterance, independent of extraction
type AuditLog interface {
	AppendRawLog(text string, ts time.Time) error
}

// TurnResult reports what one submitted turn produced
type TurnResult struct {
	Reply     string
	Entries   []store.Entry
	Cancelled bool
}

// Session is the top-level conversation controller. All shared mutable state
// (message log, entry store, taxonomy) is owned by its call path; at most one
// turn is in flight at a time, enforced by the busy flag.
type Session struct {
	mu     sync.Mutex
	busy   bool
	cancel context.CancelFunc

	chat      llm.Provider
	organizer *organizer.Organizer
	taxonomy  *taxonomy.Registry
	entries   *store.EntryStore
	state     StateStore
	audit     AuditLog
	logger    *utils.Logger
	settings  Settings
	messages  []ChatMessage

	now func() time.Time
}

// Deps bundles the collaborators a session is built from
type Deps struct {
	Chat      llm.Provider
	Organizer *organizer.Organizer
	Taxonomy  *taxonomy.Registry
	Entries   *store.EntryStore
	State     StateStore
	Audit     AuditLog
	Logger    *utils.Logger
}

// New creates a session with default settings; call Load to restore
// persisted state
func New(deps Deps) *Session {
	return &Session{
		chat:      deps.Chat,
		organizer: deps.Organizer,
		taxonomy:  deps.Taxonomy,
		entries:   deps.Entries,
		state:     deps.State,
		audit:     deps.Audit,
		logger:    deps.Logger,
		settings:  DefaultSettings(),
		now:       time.Now,
	}
}

// Load restores messages, entries and settings from the state store.
// Missing collections keep their defaults.
func (s *Session) Load() error {
	var msgs []ChatMessage
	if ok, err := s.state.LoadState(stateKeyMessages, &msgs); err != nil {
		return fmt.Errorf("failed to load chat messages: %w", err)
	} else if ok {
		s.mu.Lock()
		s.messages = msgs
		s.mu.Unlock()
	}

	var entries []store.Entry
	if ok, err := s.state.LoadState(stateKeyEntries, &entries); err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	} else if ok {
		s.entries.Load(entries)
	}

	var settings Settings
	if ok, err := s.state.LoadState(stateKeySettings, &settings); err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	} else if ok {
		s.mu.Lock()
		s.settings = settings
		s.mu.Unlock()
	}

	return nil
}

// RestoreTaxonomy builds a registry from the persisted taxonomy collections,
// merged onto the defaults
func RestoreTaxonomy(state StateStore) (*taxonomy.Registry, error) {
	var groups []taxonomy.Group
	if _, err := state.LoadState(stateKeyGroups, &groups); err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}
	var categories []taxonomy.CategoryMeta
	if _, err := state.LoadState(stateKeyCategories, &categories); err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	var schemas map[string]taxonomy.FieldSchema
	if _, err := state.LoadState(stateKeySchemas, &schemas); err != nil {
		return nil, fmt.Errorf("failed to load field schemas: %w", err)
	}
	return taxonomy.Restore(groups, categories, schemas), nil
}

// PersistTaxonomy writes the current taxonomy collections back in full.
// Call after every registry mutation.
func (s *Session) PersistTaxonomy() {
	snap := s.taxonomy.Snapshot()
	s.saveState(stateKeyGroups, snap.Groups)
	s.saveState(stateKeyCategories, snap.Categories)
	s.saveState(stateKeySchemas, snap.Schemas)
}

// Submit runs one turn for the given user text: it appends the user message
// and a raw-log line, issues the conversational call over the selected
// context, then runs extraction and links any produced entries to a system
// message. A second Submit while one is in flight returns ErrBusy.
func (s *Session) Submit(text string) (*TurnResult, error) {
	ctx, err := s.beginTurn()
	if err != nil {
		return nil, err
	}
	defer s.endTurn()

	now := s.now()
	settings := s.Settings()
	userMsg := ChatMessage{ID: NewMessageID(), Role: RoleUser, Text: text, Timestamp: now}
	s.appendMessage(userMsg)

	// the raw log captures every utterance, whatever extraction does with it
	if err := s.audit.AppendRawLog(text, now); err != nil {
		s.logger.Error("Failed to append raw log: %v", err)
	}

	result := &TurnResult{}

	if settings.ChatEnabled {
		history := SelectContext(s.historyBefore(userMsg.ID), settings.Context, now)
		reply, err := s.chat.Chat(ctx, buildChatMessages(settings.Persona, history, text))
		switch {
		case ctx.Err() != nil:
			result.Cancelled = true
		case err != nil:
			s.logger.Warn("Conversational call failed: %v", err)
		default:
			s.appendMessage(ChatMessage{ID: NewMessageID(), Role: RoleModel, Text: reply, Timestamp: s.now()})
			result.Reply = reply
		}
	}

	if settings.OrganizerEnabled && ctx.Err() == nil {
		extracted := s.organizer.Extract(ctx, text, now, s.taxonomy.Snapshot())
		if ctx.Err() != nil {
			result.Cancelled = true
		} else if len(extracted) > 0 {
			if settings.BatchSize > 0 && len(extracted) > settings.BatchSize {
				extracted = extracted[:settings.BatchSize]
			}
			inserted := s.entries.InsertBatch(extracted)
			ids := make([]string, len(inserted))
			for i, e := range inserted {
				ids[i] = e.ID
			}
			// the system message is appended only once the whole batch is in
			s.appendMessage(ChatMessage{
				ID:              NewMessageID(),
				Role:            RoleSystem,
				Text:            summarizeBatch(inserted),
				Timestamp:       s.now(),
				RelatedEntryIDs: ids,
			})
			s.saveState(stateKeyEntries, s.entries.List())
			result.Entries = inserted
		}
	}

	s.persistMessages()
	return result, nil
}

// Cancel aborts the in-flight calls of the current turn, if any. Already
// appended messages and entries stay untouched.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Busy reports whether a turn is currently in flight
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Regenerate re-issues the conversational call behind one model message and
// replaces its text in place on success. The context is recomputed from
// messages strictly before the originating user message. On cancellation or
// failure the message is left unchanged.
func (s *Session) Regenerate(messageID string) error {
	ctx, err := s.beginTurn()
	if err != nil {
		return err
	}
	defer s.endTurn()

	s.mu.Lock()
	idx := s.indexOfLocked(messageID)
	if idx < 0 || s.messages[idx].Role != RoleModel {
		s.mu.Unlock()
		return fmt.Errorf("message %q is not a model message", messageID)
	}
	userIdx := -1
	for i := idx; i >= 0; i-- {
		if s.messages[i].Role == RoleUser {
			userIdx = i
			break
		}
	}
	if userIdx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("no user message precedes %q", messageID)
	}
	target := s.messages[userIdx]
	prior := make([]ChatMessage, userIdx)
	copy(prior, s.messages[:userIdx])
	s.mu.Unlock()

	settings := s.Settings()
	history := SelectContext(prior, settings.Context, s.now())
	reply, err := s.chat.Chat(ctx, buildChatMessages(settings.Persona, history, target.Text))
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("regeneration failed: %w", err)
	}

	s.mu.Lock()
	if i := s.indexOfLocked(messageID); i >= 0 {
		s.messages[i].Text = reply
	}
	s.mu.Unlock()
	s.persistMessages()
	return nil
}

// EditAndReplay rewrites a past user message, discards everything after it,
// and re-issues the conversational call as a fresh turn. The truncation is
// destructive and takes effect immediately; confirmation is the caller's
// concern.
func (s *Session) EditAndReplay(messageID, newText string) (*TurnResult, error) {
	ctx, err := s.beginTurn()
	if err != nil {
		return nil, err
	}
	defer s.endTurn()

	s.mu.Lock()
	idx := s.indexOfLocked(messageID)
	if idx < 0 || s.messages[idx].Role != RoleUser {
		s.mu.Unlock()
		return nil, fmt.Errorf("message %q is not a user message", messageID)
	}
	s.messages = s.messages[:idx+1]
	s.messages[idx].Text = newText
	prior := make([]ChatMessage, idx)
	copy(prior, s.messages[:idx])
	s.mu.Unlock()
	s.persistMessages()

	result := &TurnResult{}
	settings := s.Settings()
	history := SelectContext(prior, settings.Context, s.now())
	reply, err := s.chat.Chat(ctx, buildChatMessages(settings.Persona, history, newText))
	switch {
	case ctx.Err() != nil:
		result.Cancelled = true
	case err != nil:
		s.logger.Warn("Replay call failed: %v", err)
	default:
		s.appendMessage(ChatMessage{ID: NewMessageID(), Role: RoleModel, Text: reply, Timestamp: s.now()})
		s.persistMessages()
		result.Reply = reply
	}
	return result, nil
}

// Revoke deletes the entries a system message produced and marks the message
// as revoked. Revoking an already revoked message is a no-op; there is no
// re-apply. A revoke while a turn is in flight is rejected so it cannot
// interleave with that turn's batch insert.
func (s *Session) Revoke(messageID string, entryIDs []string) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	idx := s.indexOfLocked(messageID)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("message %q not found", messageID)
	}
	if s.messages[idx].Revoked {
		s.mu.Unlock()
		return nil
	}
	s.messages[idx].Revoked = true
	s.mu.Unlock()

	s.entries.DeleteByIDs(entryIDs)
	s.saveState(stateKeyEntries, s.entries.List())
	s.persistMessages()
	return nil
}

// QuickAdd inserts one entry directly, bypassing extraction. Like Revoke it
// is rejected while a turn is in flight.
func (s *Session) QuickAdd(e store.Entry) (store.Entry, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return store.Entry{}, ErrBusy
	}
	s.mu.Unlock()

	inserted := s.entries.Insert(e)
	s.saveState(stateKeyEntries, s.entries.List())
	return inserted, nil
}

// Entries returns the current entry list in insertion order
func (s *Session) Entries() []store.Entry {
	return s.entries.List()
}

// Messages returns a copy of the conversation log
func (s *Session) Messages() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]ChatMessage, len(s.messages))
	copy(msgs, s.messages)
	return msgs
}

// Settings returns the current runtime settings
func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings replaces the runtime settings and persists them
func (s *Session) UpdateSettings(settings Settings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	s.saveState(stateKeySettings, settings)
}

// beginTurn claims the busy flag and creates the turn's cancellation context
func (s *Session) beginTurn() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return nil, ErrBusy
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.busy = true
	s.cancel = cancel
	return ctx, nil
}

// endTurn releases the busy flag and the turn's context
func (s *Session) endTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.busy = false
}

func (s *Session) appendMessage(msg ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// historyBefore returns a copy of the log up to (excluding) the given message
func (s *Session) historyBefore(messageID string) []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOfLocked(messageID)
	if idx < 0 {
		idx = len(s.messages)
	}
	prior := make([]ChatMessage, idx)
	copy(prior, s.messages[:idx])
	return prior
}

func (s *Session) indexOfLocked(messageID string) int {
	for i, msg := range s.messages {
		if msg.ID == messageID {
			return i
		}
	}
	return -1
}

// buildChatMessages composes persona, selected history and the new input
// into the conversational request
func buildChatMessages(persona string, history []ChatMessage, text string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	if persona != "" {
		messages = append(messages, llm.Message{Role: "system", Content: persona})
	}
	for _, msg := range history {
		messages = append(messages, llm.Message{Role: "user", Content: msg.Text})
	}
	messages = append(messages, llm.Message{Role: "user", Content: text})
	return messages
}

// summarizeBatch renders the system message text for a batch of new entries
func summarizeBatch(entries []store.Entry) string {
	titles := make([]string, len(entries))
	for i, e := range entries {
		titles[i] = e.Event
	}
	return fmt.Sprintf("Saved %d record(s): %s", len(entries), strings.Join(titles, ", "))
}

func (s *Session) persistMessages() {
	s.saveState(stateKeyMessages, s.Messages())
}

// saveState writes one collection back in full; persistence failures are
// logged, never fatal to the turn
func (s *Session) saveState(key string, value any) {
	if err := s.state.SaveState(key, value); err != nil {
		s.logger.Error("Failed to persist %s: %v", key, err)
	}
}
