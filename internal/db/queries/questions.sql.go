package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const questionColumns = `question_id, external_id, prompt, options, correct_index, hint, explanation, category, difficulty, source, created_at`

func scanQuestion(row interface{ Scan(...interface{}) error }) (Question, error) {
	var i Question
	err := row.Scan(
		&i.QuestionID,
		&i.ExternalID,
		&i.Prompt,
		&i.Options,
		&i.CorrectIndex,
		&i.Hint,
		&i.Explanation,
		&i.Category,
		&i.Difficulty,
		&i.Source,
		&i.CreatedAt,
	)
	return i, err
}

const getQuestionPool = `-- name: GetQuestionPool :many
SELECT ` + questionColumns + `
FROM questions
WHERE difficulty = $1
  AND ($2::text = '' OR category = $2)
  AND NOT (COALESCE(external_id, question_id::text) = ANY($3::text[]))
ORDER BY random()
LIMIT $4`

type GetQuestionPoolParams struct {
	Difficulty string
	Category   string
	Exclude    []string
	Limit      int32
}

func (q *Queries) GetQuestionPool(ctx context.Context, arg GetQuestionPoolParams) ([]Question, error) {
	exclude := arg.Exclude
	if exclude == nil {
		exclude = []string{}
	}
	rows, err := q.db.Query(ctx, getQuestionPool, arg.Difficulty, arg.Category, exclude, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Question
	for rows.Next() {
		i, err := scanQuestion(rows)
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

const upsertQuestion = `-- name: UpsertQuestion :one
INSERT INTO questions (external_id, prompt, options, correct_index, hint, explanation, category, difficulty, source)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (external_id) DO UPDATE SET
    prompt = EXCLUDED.prompt,
    options = EXCLUDED.options,
    correct_index = EXCLUDED.correct_index,
    hint = EXCLUDED.hint,
    explanation = EXCLUDED.explanation,
    category = EXCLUDED.category,
    difficulty = EXCLUDED.difficulty,
    source = EXCLUDED.source
RETURNING ` + questionColumns

type UpsertQuestionParams struct {
	ExternalID   pgtype.Text
	Prompt       string
	Options      []string
	CorrectIndex int16
	Hint         pgtype.Text
	Explanation  pgtype.Text
	Category     string
	Difficulty   string
	Source       string
}

func (q *Queries) UpsertQuestion(ctx context.Context, arg UpsertQuestionParams) (Question, error) {
	row := q.db.QueryRow(ctx, upsertQuestion,
		arg.ExternalID,
		arg.Prompt,
		arg.Options,
		arg.CorrectIndex,
		arg.Hint,
		arg.Explanation,
		arg.Category,
		arg.Difficulty,
		arg.Source,
	)
	return scanQuestion(row)
}

const countQuestionsByDifficulty = `-- name: CountQuestionsByDifficulty :many
SELECT difficulty, count(*) FROM questions GROUP BY difficulty ORDER BY difficulty`

type CountQuestionsByDifficultyRow struct {
	Difficulty string
	Count      int64
}

func (q *Queries) CountQuestionsByDifficulty(ctx context.Context) ([]CountQuestionsByDifficultyRow, error) {
	rows, err := q.db.Query(ctx, countQuestionsByDifficulty)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CountQuestionsByDifficultyRow
	for rows.Next() {
		var i CountQuestionsByDifficultyRow
		if err := rows.Scan(&i.Difficulty, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
