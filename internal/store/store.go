// Package store is the persistence collaborator: quiz files, question
// lists, game sessions, answer attempts and overrule events. The core never
// blocks on it for state transitions; it only records what the engine
// already decided.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/mimirquiz/mimir/internal/game"
)

var ErrNotFound = errors.New("not found")

type QuizFile struct {
	ID            int64     `json:"id"`
	FileName      string    `json:"fileName"`
	League        string    `json:"league"`
	Topic         string    `json:"topic"`
	Author        string    `json:"author"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type QuizFilter struct {
	League string
	Topic  string
	Author string
	Search string
}

// GameRecord captures a created session for historical queries.
type GameRecord struct {
	SessionID   string    `json:"sessionId"`
	QuizFileID  int64     `json:"quizFileId"`
	League      string    `json:"league"`
	Topic       string    `json:"topic"`
	PlayerNames []string  `json:"playerNames"`
	CreatedAt   time.Time `json:"createdAt"`
}

// OverruleEvent records a post-reveal challenge and its score adjustment.
type OverruleEvent struct {
	QuestionID       int64  `json:"questionId"`
	ChallengerID     int    `json:"challengerId"`
	ChallengerName   string `json:"challengerName"`
	ClaimType        string `json:"claimType"`
	PointsAdjustment int    `json:"pointsAdjustment"`
}

type Store interface {
	ListQuizzes(ctx context.Context, filter QuizFilter) ([]QuizFile, error)
	GetQuiz(ctx context.Context, id int64) (QuizFile, error)
	QuestionsForQuiz(ctx context.Context, quizID int64) ([]game.Question, error)
	CreateGame(ctx context.Context, rec GameRecord) error
	SaveAnswer(ctx context.Context, sessionID string, att game.AnswerAttempt) (int64, error)
	SaveOverrule(ctx context.Context, sessionID string, ev OverruleEvent) (int64, error)
	AnswersForGame(ctx context.Context, sessionID string) ([]game.AnswerAttempt, error)
	Close()
}
