package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/radcr/radcr-backend/internal/model"
)

// CaseRepository handles teaching case data access.
type CaseRepository struct {
	pool *pgxpool.Pool
}

// NewCaseRepository creates a new CaseRepository.
func NewCaseRepository(pool *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{pool: pool}
}

const caseColumns = `id, user_id, title, folders, images, main_image, folder_main_images,
	difficulty, answer, sheet, tags, created_at, updated_at`

func scanCase(row pgx.Row) (*model.Case, error) {
	c := &model.Case{}
	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.Folders, &c.Images, &c.MainImage,
		&c.FolderMainImages, &c.Difficulty, &c.Answer, &c.Sheet, &c.Tags, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Normalize()
	return c, nil
}

// filterClause appends the WHERE conditions of f after the user condition ($1).
func filterClause(f model.CaseFilter, args []any) (string, []any) {
	var b strings.Builder
	b.WriteString(` WHERE user_id = $1`)
	if len(f.Difficulties) > 0 {
		args = append(args, f.Difficulties)
		b.WriteString(` AND difficulty = ANY($` + strconv.Itoa(len(args)) + `)`)
	}
	if f.Tag != "" {
		args = append(args, f.Tag)
		b.WriteString(` AND $` + strconv.Itoa(len(args)) + ` = ANY(tags)`)
	}
	return b.String(), args
}

// Create inserts a case. c.ID must already be set.
func (r *CaseRepository) Create(ctx context.Context, c *model.Case) error {
	c.Normalize()
	return r.pool.QueryRow(ctx,
		`INSERT INTO cases (id, user_id, title, folders, images, main_image, folder_main_images,
		                    difficulty, answer, sheet, tags)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING created_at, updated_at`,
		c.ID, c.UserID, c.Title, c.Folders, c.Images, c.MainImage, c.FolderMainImages,
		c.Difficulty, c.Answer, c.Sheet, c.Tags,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// GetByID retrieves a case owned by userID.
func (r *CaseRepository) GetByID(ctx context.Context, id uuid.UUID, userID int) (*model.Case, error) {
	return scanCase(r.pool.QueryRow(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE id = $1 AND user_id = $2`, id, userID))
}

// List returns the cases of a user matching f, newest first.
func (r *CaseRepository) List(ctx context.Context, userID int, f model.CaseFilter) ([]model.Case, error) {
	where, args := filterClause(f, []any{userID})
	rows, err := r.pool.Query(ctx,
		`SELECT `+caseColumns+` FROM cases`+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []model.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, *c)
	}
	return cases, rows.Err()
}

// Random draws one case matching f. It returns pgx.ErrNoRows when none matches.
func (r *CaseRepository) Random(ctx context.Context, userID int, f model.CaseFilter) (*model.Case, error) {
	where, args := filterClause(f, []any{userID})
	return scanCase(r.pool.QueryRow(ctx,
		`SELECT `+caseColumns+` FROM cases`+where+` ORDER BY random() LIMIT 1`, args...))
}

// Mutate loads a case under a row lock, applies fn and stores every
// mutable field in the same transaction.
func (r *CaseRepository) Mutate(ctx context.Context, id uuid.UUID, userID int, fn func(*model.Case) error) (*model.Case, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err := scanCase(tx.QueryRow(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID))
	if err != nil {
		return nil, err
	}

	if err := fn(c); err != nil {
		return nil, err
	}
	c.Normalize()

	err = tx.QueryRow(ctx,
		`UPDATE cases
		 SET title = $1, folders = $2, images = $3, main_image = $4, folder_main_images = $5,
		     difficulty = $6, answer = $7, sheet = $8, tags = $9, updated_at = NOW()
		 WHERE id = $10
		 RETURNING updated_at`,
		c.Title, c.Folders, c.Images, c.MainImage, c.FolderMainImages,
		c.Difficulty, c.Answer, c.Sheet, c.Tags, c.ID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update case: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return c, nil
}

// Delete removes a case. It reports pgx.ErrNoRows when nothing matched.
func (r *CaseRepository) Delete(ctx context.Context, id uuid.UUID, userID int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cases WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
