package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/groupbot/internal/settings"
)

// SQL persists state in postgres or sqlite3 through the schema in Migrations.
type SQL struct {
	db *sqlx.DB
}

// NewSQL returns a store over an already migrated database.
func NewSQL(db *sqlx.DB) *SQL {
	return &SQL{db: db}
}

type settingsRow struct {
	QuizTime        string    `db:"quiz_time"`
	QuizChapter     string    `db:"quiz_chapter"`
	QuizLevel       string    `db:"quiz_level"`
	QuizIsSet       bool      `db:"quiz_is_set"`
	QuizSetBy       int64     `db:"quiz_set_by"`
	QuizSetAt       time.Time `db:"quiz_set_at"`
	WelcomeTemplate string    `db:"welcome_template"`
}

const (
	selectSettings = `SELECT quiz_time, quiz_chapter, quiz_level, quiz_is_set, quiz_set_by, quiz_set_at, welcome_template
		FROM bot_settings WHERE id = 1`
	upsertSettings = `INSERT INTO bot_settings
		(id, quiz_time, quiz_chapter, quiz_level, quiz_is_set, quiz_set_by, quiz_set_at, welcome_template)
		VALUES (1, :quiz_time, :quiz_chapter, :quiz_level, :quiz_is_set, :quiz_set_by, :quiz_set_at, :welcome_template)
		ON CONFLICT (id) DO UPDATE SET
			quiz_time = excluded.quiz_time,
			quiz_chapter = excluded.quiz_chapter,
			quiz_level = excluded.quiz_level,
			quiz_is_set = excluded.quiz_is_set,
			quiz_set_by = excluded.quiz_set_by,
			quiz_set_at = excluded.quiz_set_at,
			welcome_template = excluded.welcome_template`
	selectMessages = `SELECT id, send_at, text, markdown, recurring, attempts, created_by, created_at
		FROM scheduled_messages ORDER BY send_at`
	insertMessage = `INSERT INTO scheduled_messages
		(id, send_at, text, markdown, recurring, attempts, created_by, created_at)
		VALUES (:id, :send_at, :text, :markdown, :recurring, :attempts, :created_by, :created_at)`
	selectPolls = `SELECT chat_id, message_id, close_at, question, attempts FROM poll_closes ORDER BY close_at`
	insertPoll  = `INSERT INTO poll_closes (chat_id, message_id, close_at, question, attempts)
		VALUES (:chat_id, :message_id, :close_at, :question, :attempts)`
	insertActivity = `INSERT INTO activity_log (id, kind, user_id, user_name, detail, created_at)
		VALUES (:id, :kind, :user_id, :user_name, :detail, :created_at)`
)

func (s *SQL) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	var row settingsRow
	err := s.db.GetContext(ctx, &row, selectSettings)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Snapshot{}, fmt.Errorf("load settings: %w", err)
	default:
		snap.QuizDetails = settings.QuizDetails{
			Time:    row.QuizTime,
			Chapter: row.QuizChapter,
			Level:   row.QuizLevel,
			IsSet:   row.QuizIsSet,
			SetBy:   row.QuizSetBy,
			SetAt:   row.QuizSetAt,
		}
		snap.WelcomeTemplate = row.WelcomeTemplate
	}

	if err := s.db.SelectContext(ctx, &snap.Scheduled, selectMessages); err != nil {
		return Snapshot{}, fmt.Errorf("load scheduled messages: %w", err)
	}
	if err := s.db.SelectContext(ctx, &snap.Polls, selectPolls); err != nil {
		return Snapshot{}, fmt.Errorf("load polls: %w", err)
	}
	return snap, nil
}

// Save replaces the stored state with snap in one transaction.
func (s *SQL) Save(ctx context.Context, snap Snapshot) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	q := snap.QuizDetails
	row := settingsRow{
		QuizTime:        q.Time,
		QuizChapter:     q.Chapter,
		QuizLevel:       q.Level,
		QuizIsSet:       q.IsSet,
		QuizSetBy:       q.SetBy,
		QuizSetAt:       q.SetAt,
		WelcomeTemplate: snap.WelcomeTemplate,
	}
	if _, err = tx.NamedExecContext(ctx, upsertSettings, row); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM scheduled_messages`); err != nil {
		return fmt.Errorf("clear scheduled messages: %w", err)
	}
	for _, m := range snap.Scheduled {
		if _, err = tx.NamedExecContext(ctx, insertMessage, m); err != nil {
			return fmt.Errorf("save scheduled message %s: %w", m.ID, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM poll_closes`); err != nil {
		return fmt.Errorf("clear polls: %w", err)
	}
	for _, p := range snap.Polls {
		if _, err = tx.NamedExecContext(ctx, insertPoll, p); err != nil {
			return fmt.Errorf("save poll %d: %w", p.MessageID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQL) LogActivity(ctx context.Context, a Activity) error {
	if _, err := s.db.NamedExecContext(ctx, insertActivity, a); err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	return nil
}

// RecentActivity returns up to limit entries, newest first.
func (s *SQL) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	var out []Activity
	query := s.db.Rebind(`SELECT id, kind, user_id, user_name, detail, created_at
		FROM activity_log ORDER BY created_at DESC LIMIT ?`)
	if err := s.db.SelectContext(ctx, &out, query, limit); err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	return out, nil
}

// Close releases the connection pool.
func (s *SQL) Close() error {
	return s.db.Close()
}
