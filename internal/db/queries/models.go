package queries

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	UserID       pgtype.UUID
	Email        pgtype.Text
	PasswordHash pgtype.Text
	DisplayName  string
	UserType     string
	CreatedAt    pgtype.Timestamptz
	LastLoginAt  pgtype.Timestamptz
}

type Question struct {
	QuestionID   pgtype.UUID
	ExternalID   pgtype.Text
	Prompt       string
	Options      []string
	CorrectIndex int16
	Hint         pgtype.Text
	Explanation  pgtype.Text
	Category     string
	Difficulty   string
	Source       string
	CreatedAt    pgtype.Timestamptz
}

type GameResult struct {
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

type LeaderboardSnapshot struct {
	SnapshotID  int64
	TimeWindow  string
	GeneratedAt pgtype.Timestamptz
	Entries     []byte
	SourceHash  string
}
