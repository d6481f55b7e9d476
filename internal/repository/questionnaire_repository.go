package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/radcr/radcr-backend/internal/model"
)

// QuestionnaireRepository stores questionnaires as JSONB documents.
// Every query is scoped to the owning user; a document owned by someone
// else is reported as pgx.ErrNoRows.
type QuestionnaireRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionnaireRepository creates a new QuestionnaireRepository.
func NewQuestionnaireRepository(pool *pgxpool.Pool) *QuestionnaireRepository {
	return &QuestionnaireRepository{pool: pool}
}

const questionnaireColumns = `id, user_id, title, questions, selected_options, cr_data, hidden_questions, created_at, updated_at`

func scanQuestionnaire(row pgx.Row) (*model.Questionnaire, error) {
	q := &model.Questionnaire{}
	err := row.Scan(&q.ID, &q.UserID, &q.Title, &q.Questions,
		&q.SelectedOptions, &q.CRData, &q.HiddenQuestions, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	q.Normalize()
	return q, nil
}

// Create inserts a questionnaire. q.ID must already be set.
func (r *QuestionnaireRepository) Create(ctx context.Context, q *model.Questionnaire) error {
	q.Normalize()
	return r.pool.QueryRow(ctx,
		`INSERT INTO questionnaires (id, user_id, title, questions, selected_options, cr_data, hidden_questions)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		q.ID, q.UserID, q.Title, q.Questions, q.SelectedOptions, q.CRData, q.HiddenQuestions,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
}

// GetByID retrieves a questionnaire owned by userID.
func (r *QuestionnaireRepository) GetByID(ctx context.Context, id uuid.UUID, userID int) (*model.Questionnaire, error) {
	return scanQuestionnaire(r.pool.QueryRow(ctx,
		`SELECT `+questionnaireColumns+` FROM questionnaires WHERE id = $1 AND user_id = $2`,
		id, userID))
}

// ListByUser returns the summaries of a user's questionnaires, most recently edited first.
func (r *QuestionnaireRepository) ListByUser(ctx context.Context, userID int) ([]model.QuestionnaireSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, jsonb_array_length(questions), updated_at
		 FROM questionnaires WHERE user_id = $1
		 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.QuestionnaireSummary
	for rows.Next() {
		var s model.QuestionnaireSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.QuestionCount, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// SaveAnswersAt overwrites the answer state captured at savedAt, unless the
// document was modified after that instant. It reports whether the write applied.
func (r *QuestionnaireRepository) SaveAnswersAt(ctx context.Context, id uuid.UUID, userID int, state model.AnswerState, savedAt time.Time) (bool, error) {
	state.Normalize()
	tag, err := r.pool.Exec(ctx,
		`UPDATE questionnaires
		 SET selected_options = $1, cr_data = $2, hidden_questions = $3, updated_at = $6
		 WHERE id = $4 AND user_id = $5 AND updated_at <= $6`,
		state.SelectedOptions, state.CRData, state.HiddenQuestions, id, userID, savedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Mutate loads a questionnaire under a row lock, applies fn and stores the
// result in the same transaction. Nothing is written when fn fails.
// updated_at is read from the database clock once fn has returned, so it
// orders after anything fn observed.
func (r *QuestionnaireRepository) Mutate(ctx context.Context, id uuid.UUID, userID int, fn func(*model.Questionnaire) error) (*model.Questionnaire, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	q, err := scanQuestionnaire(tx.QueryRow(ctx,
		`SELECT `+questionnaireColumns+` FROM questionnaires WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		id, userID))
	if err != nil {
		return nil, err
	}

	if err := fn(q); err != nil {
		return nil, err
	}
	q.Normalize()

	err = tx.QueryRow(ctx,
		`UPDATE questionnaires
		 SET title = $1, questions = $2, selected_options = $3, cr_data = $4,
		     hidden_questions = $5, updated_at = clock_timestamp()
		 WHERE id = $6
		 RETURNING updated_at`,
		q.Title, q.Questions, q.SelectedOptions, q.CRData, q.HiddenQuestions, q.ID,
	).Scan(&q.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update questionnaire: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return q, nil
}

// Stamp runs fn under the questionnaire's row lock with the database clock
// read after the lock was granted. The instant passed to fn is later than the
// updated_at of every committed Mutate and earlier than any Mutate that has
// not yet locked the row.
func (r *QuestionnaireRepository) Stamp(ctx context.Context, id uuid.UUID, userID int, fn func(at time.Time) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var one int
	err = tx.QueryRow(ctx,
		`SELECT 1 FROM questionnaires WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		id, userID).Scan(&one)
	if err != nil {
		return err
	}

	var at time.Time
	if err := tx.QueryRow(ctx, `SELECT clock_timestamp()`).Scan(&at); err != nil {
		return fmt.Errorf("read clock: %w", err)
	}
	if err := fn(at); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Delete removes a questionnaire. It reports pgx.ErrNoRows when nothing matched.
func (r *QuestionnaireRepository) Delete(ctx context.Context, id uuid.UUID, userID int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questionnaires WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
