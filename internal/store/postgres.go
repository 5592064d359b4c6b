package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mimirquiz/mimir/internal/game"
)

// Postgres persists game data through a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) ListQuizzes(ctx context.Context, filter QuizFilter) ([]QuizFile, error) {
	const q = `
		SELECT id, file_name, league, topic, author, question_count, created_at
		FROM quiz_files
		WHERE ($1 = '' OR league = $1)
		  AND ($2 = '' OR topic = $2)
		  AND ($3 = '' OR author = $3)
		  AND ($4 = '' OR file_name ILIKE '%' || $4 || '%'
		       OR topic ILIKE '%' || $4 || '%'
		       OR author ILIKE '%' || $4 || '%')
		ORDER BY created_at DESC`

	rows, err := p.pool.Query(ctx, q, filter.League, filter.Topic, filter.Author, filter.Search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QuizFile
	for rows.Next() {
		var qf QuizFile
		if err := rows.Scan(&qf.ID, &qf.FileName, &qf.League, &qf.Topic, &qf.Author, &qf.QuestionCount, &qf.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, qf)
	}
	return out, rows.Err()
}

func (p *Postgres) GetQuiz(ctx context.Context, id int64) (QuizFile, error) {
	const q = `
		SELECT id, file_name, league, topic, author, question_count, created_at
		FROM quiz_files WHERE id = $1`

	var qf QuizFile
	err := p.pool.QueryRow(ctx, q, id).Scan(&qf.ID, &qf.FileName, &qf.League, &qf.Topic, &qf.Author, &qf.QuestionCount, &qf.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return QuizFile{}, ErrNotFound
	}
	if err != nil {
		return QuizFile{}, err
	}
	return qf, nil
}

func (p *Postgres) QuestionsForQuiz(ctx context.Context, quizID int64) ([]game.Question, error) {
	const q = `
		SELECT id, round_number, player_number, question, question_image_url, answer, answer_image_url, order_index
		FROM questions
		WHERE quiz_file_id = $1
		ORDER BY order_index`

	rows, err := p.pool.Query(ctx, q, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.Question
	for rows.Next() {
		var qn game.Question
		if err := rows.Scan(&qn.ID, &qn.RoundNumber, &qn.PlayerNumber, &qn.QuestionText, &qn.QuestionImageURL, &qn.AnswerText, &qn.AnswerImageURL, &qn.OrderIndex); err != nil {
			return nil, err
		}
		out = append(out, qn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func (p *Postgres) CreateGame(ctx context.Context, rec GameRecord) error {
	const q = `
		INSERT INTO game_sessions (session_id, quiz_file_id, league, topic, player_names, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := p.pool.Exec(ctx, q, rec.SessionID, rec.QuizFileID, rec.League, rec.Topic, rec.PlayerNames, createdAt)
	return err
}

func (p *Postgres) SaveAnswer(ctx context.Context, sessionID string, att game.AnswerAttempt) (int64, error) {
	const q = `
		INSERT INTO player_answers
			(session_id, question_id, player_id, player_name, spoken_answer, result,
			 is_addressed, time_taken, attempt_order, points_awarded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	var id int64
	err := p.pool.QueryRow(ctx, q,
		sessionID, att.QuestionID, att.PlayerID, att.PlayerName, att.SpokenAnswer, string(att.Result),
		att.IsAddressed, att.TimeTaken, att.AttemptOrder, att.PointsAwarded, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (p *Postgres) SaveOverrule(ctx context.Context, sessionID string, ev OverruleEvent) (int64, error) {
	const q = `
		INSERT INTO overrule_events
			(session_id, question_id, challenger_id, challenger_name, claim_type, points_adjustment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int64
	err := p.pool.QueryRow(ctx, q,
		sessionID, ev.QuestionID, ev.ChallengerID, ev.ChallengerName, ev.ClaimType, ev.PointsAdjustment, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (p *Postgres) AnswersForGame(ctx context.Context, sessionID string) ([]game.AnswerAttempt, error) {
	const q = `
		SELECT question_id, player_id, player_name, spoken_answer, result,
		       is_addressed, time_taken, attempt_order, points_awarded
		FROM player_answers
		WHERE session_id = $1
		ORDER BY id`

	rows, err := p.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.AnswerAttempt
	for rows.Next() {
		var att game.AnswerAttempt
		var result string
		if err := rows.Scan(&att.QuestionID, &att.PlayerID, &att.PlayerName, &att.SpokenAnswer, &result,
			&att.IsAddressed, &att.TimeTaken, &att.AttemptOrder, &att.PointsAwarded); err != nil {
			return nil, err
		}
		att.Result = game.AnswerResult(result)
		out = append(out, att)
	}
	return out, rows.Err()
}

func (p *Postgres) Close() {
	p.pool.Close()
}
