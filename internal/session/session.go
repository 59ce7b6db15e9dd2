// Package session owns all per-conversation mutable state: the report
// being accumulated, the action scratch, registration fields and the
// conversation state itself. Nothing here is shared across chats.
package session

import (
	"sync"
	"time"

	"github.com/utkabotron/vibe/internal/model"
)

// State enumerates the wizard states of one conversation.
type State int

const (
	StateIdle State = iota
	StateEnteringCode
	StateEnteringName
	StateConfirmRegistration
	StateChoosingProject
	StateChoosingProduct
	StateChoosingCategory
	StateChoosingLabourType
	StateEnteringHours
	StateChoosingPaintType
	StateChoosingPaintMaterial
	StateEnteringPaintQuantity
	StateChoosingMaterialType
	StateChoosingMaterial
	StateEnteringMaterialQuantity
	StateEnteringComment
	StateConfirmAction
	StateAddAnotherAction
	StateConfirmReport
)

// Session is the scratch space of one chat's conversation.
type Session struct {
	ChatID   int64
	State    State
	Employee model.Employee

	report *model.Report
	action *model.Action

	// registration scratch
	RegTelegramID string
	RegName       string

	// message bookkeeping: tracked ids are deleted on cleanup, exempt
	// ids (submitted report cards) survive it.
	tracked  []int
	exempt   map[int]bool
	lastSeen time.Time
}

// CurrentReport lazily creates the in-progress report.
func (s *Session) CurrentReport() *model.Report {
	if s.report == nil {
		s.report = &model.Report{}
	}
	return s.report
}

// CurrentAction lazily creates the action scratch object.
func (s *Session) CurrentAction() *model.Action {
	if s.action == nil {
		s.action = &model.Action{}
	}
	return s.action
}

// CommitAction appends a copy of the action scratch to the report and
// clears the scratch. Later scratch mutation never reaches the copy.
func (s *Session) CommitAction() {
	if s.action == nil {
		return
	}
	r := s.CurrentReport()
	r.Actions = append(r.Actions, *s.action)
	s.action = nil
}

// ClearAction drops only the action scratch, keeping the report.
func (s *Session) ClearAction() {
	s.action = nil
}

// ClearReport drops the report and the action scratch.
func (s *Session) ClearReport() {
	s.report = nil
	s.action = nil
}

// Track remembers a message id for later cleanup.
func (s *Session) Track(messageID int) {
	if s.exempt[messageID] {
		return
	}
	s.tracked = append(s.tracked, messageID)
}

// Exempt marks a message id as permanent (report cards stay in chat)
// and removes it from the cleanup list if already tracked.
func (s *Session) Exempt(messageID int) {
	if s.exempt == nil {
		s.exempt = make(map[int]bool)
	}
	s.exempt[messageID] = true
	for i, id := range s.tracked {
		if id == messageID {
			s.tracked = append(s.tracked[:i], s.tracked[i+1:]...)
			break
		}
	}
}

// TakeTracked returns the tracked message ids and resets the list.
func (s *Session) TakeTracked() []int {
	ids := s.tracked
	s.tracked = nil
	return ids
}

// Store maps chat ids to sessions. All access is serialized internally
// so the idle sweeper can run next to the update loop.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	now      func() time.Time
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		now:      time.Now,
	}
}

// Get returns the session for a chat, creating it on first use.
func (st *Store) Get(chatID int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[chatID]
	if !ok {
		s = &Session{ChatID: chatID, State: StateIdle}
		st.sessions[chatID] = s
	}
	s.lastSeen = st.now()
	return s
}

// Peek returns the session without creating or touching it.
func (st *Store) Peek(chatID int64) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[chatID]
	return s, ok
}

// Clear removes a chat's session entirely: report, scratch and
// registration fields are gone. Tracked message ids are returned so
// the host can still delete the prompts.
func (st *Store) Clear(chatID int64) []int {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[chatID]
	if !ok {
		return nil
	}
	delete(st.sessions, chatID)
	return s.tracked
}

// Expired describes one session removed by the idle sweep.
type Expired struct {
	ChatID  int64
	Tracked []int
}

// ExpireIdle removes sessions with no activity since the deadline and
// returns them so the host can notify the users and delete the prompts.
func (st *Store) ExpireIdle(timeout time.Duration) []Expired {
	st.mu.Lock()
	defer st.mu.Unlock()

	deadline := st.now().Add(-timeout)
	var expired []Expired
	for chatID, s := range st.sessions {
		if s.State != StateIdle && s.lastSeen.Before(deadline) {
			delete(st.sessions, chatID)
			expired = append(expired, Expired{ChatID: chatID, Tracked: s.tracked})
		}
	}
	return expired
}
