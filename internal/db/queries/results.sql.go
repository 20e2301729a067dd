package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const resultColumns = `session_id, user_id, category, difficulty, score, correct_count, answered_count, total_questions,
accuracy_percent, is_win, end_reason, lifelines_used, total_time_seconds, started_at, ended_at`

func scanGameResult(row interface{ Scan(...interface{}) error }) (GameResult, error) {
	var i GameResult
	err := row.Scan(
		&i.SessionID,
		&i.UserID,
		&i.Category,
		&i.Difficulty,
		&i.Score,
		&i.CorrectCount,
		&i.AnsweredCount,
		&i.TotalQuestions,
		&i.AccuracyPercent,
		&i.IsWin,
		&i.EndReason,
		&i.LifelinesUsed,
		&i.TotalTimeSeconds,
		&i.StartedAt,
		&i.EndedAt,
	)
	return i, err
}

const insertGameResult = `-- name: InsertGameResult :exec
INSERT INTO game_results (` + resultColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (session_id) DO NOTHING`

type InsertGameResultParams struct {
	SessionID        pgtype.UUID
	UserID           pgtype.UUID
	Category         string
	Difficulty       string
	Score            int32
	CorrectCount     int32
	AnsweredCount    int32
	TotalQuestions   int32
	AccuracyPercent  int32
	IsWin            bool
	EndReason        string
	LifelinesUsed    []string
	TotalTimeSeconds int32
	StartedAt        pgtype.Timestamptz
	EndedAt          pgtype.Timestamptz
}

func (q *Queries) InsertGameResult(ctx context.Context, arg InsertGameResultParams) error {
	lifelines := arg.LifelinesUsed
	if lifelines == nil {
		lifelines = []string{}
	}
	_, err := q.db.Exec(ctx, insertGameResult,
		arg.SessionID,
		arg.UserID,
		arg.Category,
		arg.Difficulty,
		arg.Score,
		arg.CorrectCount,
		arg.AnsweredCount,
		arg.TotalQuestions,
		arg.AccuracyPercent,
		arg.IsWin,
		arg.EndReason,
		lifelines,
		arg.TotalTimeSeconds,
		arg.StartedAt,
		arg.EndedAt,
	)
	return err
}

const getGameResult = `-- name: GetGameResult :one
SELECT ` + resultColumns + ` FROM game_results WHERE session_id = $1`

func (q *Queries) GetGameResult(ctx context.Context, sessionID pgtype.UUID) (GameResult, error) {
	return scanGameResult(q.db.QueryRow(ctx, getGameResult, sessionID))
}

const listResultsByUser = `-- name: ListResultsByUser :many
SELECT ` + resultColumns + `
FROM game_results
WHERE user_id = $1
ORDER BY ended_at DESC
LIMIT $2`

type ListResultsByUserParams struct {
	UserID pgtype.UUID
	Limit  int32
}

func (q *Queries) ListResultsByUser(ctx context.Context, arg ListResultsByUserParams) ([]GameResult, error) {
	rows, err := q.db.Query(ctx, listResultsByUser, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GameResult
	for rows.Next() {
		i, err := scanGameResult(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
