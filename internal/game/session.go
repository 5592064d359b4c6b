package game

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mimirquiz/mimir/internal/match"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoPlayers       = errors.New("at least one player required")
	ErrNoQuestions     = errors.New("quiz has no questions")
	ErrGameCompleted   = errors.New("game already completed")
	ErrGameNotRunning  = errors.New("game not in progress")
	ErrInvalidPlayer   = errors.New("player index out of range")
	ErrInvalidClaim    = errors.New("invalid overrule claim")
)

// Session is the single-authority runtime for the host-operates-all-mics
// mode: it owns the authoritative GameState, applies engine transitions
// atomically and tracks a monotonically increasing version. Timer callbacks
// carry the version they were armed with; a callback whose version no longer
// matches fires against superseded state and is dropped.
type Session struct {
	ID         string
	QuizFileID int64
	League     string
	Topic      string
	CreatedAt  time.Time

	engine  Engine
	mu      sync.Mutex
	state   GameState
	version int64
}

// Snapshot returns the current state and its version.
func (s *Session) Snapshot() (GameState, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.version
}

// SubmitAnswer matches the spoken answer against the current question,
// applies the verdict and returns the attempt record for persistence along
// with the new state.
func (s *Session) SubmitAnswer(spoken string, timeTaken int) (AnswerAttempt, GameState, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return AnswerAttempt{}, s.state, s.version, err
	}

	question := s.state.CurrentQuestion()
	player := s.state.Players[s.state.CurrentPlayerIndex]
	isAddressed := s.state.CurrentPlayerIndex == s.state.AddressedPlayerIndex
	result := AnswerResult(match.Match(spoken, question.AnswerText))

	attempt := AnswerAttempt{
		PlayerID:      player.ID,
		PlayerName:    player.Name,
		QuestionID:    question.ID,
		SpokenAnswer:  spoken,
		Result:        result,
		IsAddressed:   isAddressed,
		TimeTaken:     timeTaken,
		AttemptOrder:  s.state.AttemptCount,
		PointsAwarded: s.engine.CalculateScore(result, isAddressed),
	}

	s.state = s.engine.ProcessAnswer(s.state, spoken, result)
	s.version++
	return attempt, s.state, s.version, nil
}

// Pass lets the current player explicitly give up the slot. Whether that
// consumes an attempt is a policy decision carried by the rules.
func (s *Session) Pass() (GameState, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return s.state, s.version, err
	}
	s.state = s.engine.ProcessAnswer(s.state, "", ResultPassed)
	s.version++
	return s.state, s.version, nil
}

// ExpireTimer applies a timeout verdict for the current player, but only if
// the session is still at the version the timer was armed with. Stale
// callbacks return ok=false and change nothing.
func (s *Session) ExpireTimer(armedVersion int64) (GameState, int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version != armedVersion || s.state.Status != StatusInProgress {
		return s.state, s.version, false
	}
	s.state = s.engine.ProcessAnswer(s.state, "", ResultTimeout)
	s.version++
	return s.state, s.version, true
}

// NextQuestion advances the session to the next question or into the
// terminal completed status.
func (s *Session) NextQuestion() (GameState, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Status == StatusCompleted {
		return s.state, s.version, ErrGameCompleted
	}
	s.state = s.engine.MoveToNextQuestion(s.state)
	s.version++
	return s.state, s.version, nil
}

// Overrule resolves a challenge against the last scored answer.
func (s *Session) Overrule(challengerIndex int, claim OverruleClaim) (GameState, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return s.state, s.version, err
	}
	if challengerIndex < 0 || challengerIndex >= len(s.state.Players) {
		return s.state, s.version, ErrInvalidPlayer
	}
	if claim != ClaimCorrect && claim != ClaimIncorrect {
		return s.state, s.version, ErrInvalidClaim
	}
	s.state = s.engine.HandleOverrule(s.state, challengerIndex, claim)
	s.version++
	return s.state, s.version, nil
}

func (s *Session) requireInProgress() error {
	switch s.state.Status {
	case StatusInProgress:
		return nil
	case StatusCompleted:
		return ErrGameCompleted
	default:
		return ErrGameNotRunning
	}
}

// SessionManager owns all active single-player sessions. It is constructed
// explicitly and injected where needed rather than living as a package
// global.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	engine   Engine
}

func NewSessionManager(rules Rules) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		engine:   NewEngine(rules),
	}
}

// Create initializes a new session from quiz metadata, players and the
// ordered question list.
func (m *SessionManager) Create(quizFileID int64, league, topic string, players []Player, questions []Question) (*Session, error) {
	if len(players) == 0 {
		return nil, ErrNoPlayers
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	s := &Session{
		ID:         uuid.NewString(),
		QuizFileID: quizFileID,
		League:     league,
		Topic:      topic,
		CreatedAt:  time.Now().UTC(),
		engine:     m.engine,
		state:      m.engine.InitializeGame(players, questions),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.sessions[id]
	if s == nil {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete tears a finished session down.
func (m *SessionManager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
