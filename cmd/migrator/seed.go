package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/millionaire/internal/db/queries"
	"github.com/gokatarajesh/millionaire/internal/db/repository"
	"github.com/gokatarajesh/millionaire/internal/question"
)

type questionUpserter interface {
	Upsert(ctx context.Context, params queries.UpsertQuestionParams) (queries.Question, error)
	CountByDifficulty(ctx context.Context) (map[string]int64, error)
}

var _ questionUpserter = (*repository.QuestionRepository)(nil)

func newSeedCmd() *cobra.Command {
	var bankDir string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the question bank into the curated pool",
		Long: "Loads the embedded Arabic bank, or every *.yaml file under --bank, " +
			"and upserts each question keyed by its stable id.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			questions, err := loadQuestions(bankDir)
			if err != nil {
				return err
			}

			pg, err := loadPostgres()
			if err != nil {
				return err
			}
			pool, err := pgxpool.New(cmd.Context(), pg.DSN())
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			return seed(cmd.Context(), repository.NewQuestionRepository(queries.New(pool)), questions)
		},
	}
	cmd.Flags().StringVar(&bankDir, "bank", "", "directory of question YAML files (default: embedded bank)")
	return cmd
}

func loadQuestions(dir string) ([]question.Question, error) {
	if dir == "" {
		bank, err := question.EmbeddedBank()
		if err != nil {
			return nil, fmt.Errorf("load embedded bank: %w", err)
		}
		return bank.All(), nil
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("question directory: %w", err)
	}
	qs, err := question.LoadYAML(os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", dir, err)
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("no questions found in %s", dir)
	}
	return qs, nil
}

func seed(ctx context.Context, repo questionUpserter, questions []question.Question) error {
	var skipped int
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			log.Warn().Err(err).Str("id", q.ID).Msg("skipping invalid question")
			skipped++
			continue
		}
		if _, err := repo.Upsert(ctx, upsertParams(q)); err != nil {
			return fmt.Errorf("upsert question %s: %w", q.ID, err)
		}
	}

	counts, err := repo.CountByDifficulty(ctx)
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	log.Info().
		Int("seeded", len(questions)-skipped).
		Int("skipped", skipped).
		Interface("pool", counts).
		Msg("question seed complete")
	return nil
}

func upsertParams(q question.Question) queries.UpsertQuestionParams {
	source := q.Source
	if source == "" {
		source = "bank"
	}
	return queries.UpsertQuestionParams{
		ExternalID:   pgtype.Text{String: q.ID, Valid: q.ID != ""},
		Prompt:       q.Prompt,
		Options:      append([]string(nil), q.Options...),
		CorrectIndex: int16(q.CorrectIndex),
		Hint:         pgtype.Text{String: q.Hint, Valid: q.Hint != ""},
		Explanation:  pgtype.Text{String: q.Explanation, Valid: q.Explanation != ""},
		Category:     q.Category,
		Difficulty:   q.Difficulty,
		Source:       source,
	}
}
