package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mimirquiz/mimir/internal/game"
)

// Memory is the in-memory store used when no DATABASE_URL is configured and
// by tests.
type Memory struct {
	mu        sync.RWMutex
	quizzes   map[int64]QuizFile
	questions map[int64][]game.Question
	games     map[string]GameRecord
	answers   map[string][]game.AnswerAttempt
	overrules map[string][]OverruleEvent
	nextID    int64
}

func NewMemory() *Memory {
	return &Memory{
		quizzes:   make(map[int64]QuizFile),
		questions: make(map[int64][]game.Question),
		games:     make(map[string]GameRecord),
		answers:   make(map[string][]game.AnswerAttempt),
		overrules: make(map[string][]OverruleEvent),
		nextID:    1,
	}
}

// AddQuiz seeds a quiz file with its questions and returns the assigned id.
func (m *Memory) AddQuiz(q QuizFile, questions []game.Question) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	q.ID = m.nextID
	m.nextID++
	q.QuestionCount = len(questions)
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}

	ordered := make([]game.Question, len(questions))
	copy(ordered, questions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderIndex < ordered[j].OrderIndex
	})

	m.quizzes[q.ID] = q
	m.questions[q.ID] = ordered
	return q.ID
}

func (m *Memory) ListQuizzes(_ context.Context, filter QuizFilter) ([]QuizFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []QuizFile
	for _, q := range m.quizzes {
		if filter.League != "" && q.League != filter.League {
			continue
		}
		if filter.Topic != "" && q.Topic != filter.Topic {
			continue
		}
		if filter.Author != "" && q.Author != filter.Author {
			continue
		}
		if filter.Search != "" && !matchesSearch(q, filter.Search) {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func matchesSearch(q QuizFile, search string) bool {
	s := strings.ToLower(search)
	return strings.Contains(strings.ToLower(q.FileName), s) ||
		strings.Contains(strings.ToLower(q.Topic), s) ||
		strings.Contains(strings.ToLower(q.Author), s)
}

func (m *Memory) GetQuiz(_ context.Context, id int64) (QuizFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return QuizFile{}, ErrNotFound
	}
	return q, nil
}

func (m *Memory) QuestionsForQuiz(_ context.Context, quizID int64) ([]game.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	qs, ok := m.questions[quizID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]game.Question, len(qs))
	copy(out, qs)
	return out, nil
}

func (m *Memory) CreateGame(_ context.Context, rec GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[rec.SessionID] = rec
	return nil
}

func (m *Memory) SaveAnswer(_ context.Context, sessionID string, att game.AnswerAttempt) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers[sessionID] = append(m.answers[sessionID], att)
	id := m.nextID
	m.nextID++
	return id, nil
}

func (m *Memory) SaveOverrule(_ context.Context, sessionID string, ev OverruleEvent) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrules[sessionID] = append(m.overrules[sessionID], ev)
	id := m.nextID
	m.nextID++
	return id, nil
}

// AnswersForGame returns the recorded attempts for a session, in submission
// order. An unknown session yields an empty history, not an error.
func (m *Memory) AnswersForGame(_ context.Context, sessionID string) ([]game.AnswerAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]game.AnswerAttempt, len(m.answers[sessionID]))
	copy(out, m.answers[sessionID])
	return out, nil
}

func (m *Memory) Close() {}
