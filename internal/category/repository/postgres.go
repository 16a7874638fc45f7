package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/fekuna/catalog-service/internal/apperr"
	"github.com/fekuna/catalog-service/internal/model"
)

const pgSerializationFailure = "40001"

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindAll(ctx context.Context, isActive *bool) ([]model.CategoryWithChildCount, error) {
	query := `
        SELECT c.*,
               (SELECT count(*) FROM categories ch WHERE ch.parent_id = c.id) AS sub_categories_count
        FROM categories c
    `
	args := []interface{}{}
	if isActive != nil {
		query += ` WHERE c.is_active = $1`
		args = append(args, *isActive)
	}
	query += ` ORDER BY c.name ASC`

	categories := []model.CategoryWithChildCount{}
	if err := r.DB.SelectContext(ctx, &categories, query, args...); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Category, error) {
	var category model.Category
	err := r.DB.GetContext(ctx, &category, `SELECT * FROM categories WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *PGRepository) Create(ctx context.Context, c *model.Category) error {
	_, err := r.DB.NamedExecContext(ctx, `
        INSERT INTO categories (id, parent_id, name, description, sort_order, is_active, version, created_at, updated_at)
        VALUES (:id, :parent_id, :name, :description, :sort_order, :is_active, :version, :created_at, :updated_at)
    `, c)
	return err
}

// Update rewrites the category inside one serializable transaction. The
// parent-chain walk and the versioned UPDATE observe the same snapshot, so two
// concurrent reparents that would jointly close a cycle cannot both commit:
// the loser aborts with a serialization failure and surfaces as Concurrency.
func (r *PGRepository) Update(ctx context.Context, c *model.Category) error {
	tx, err := r.DB.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if c.ParentID != nil {
		if err := walkParentChain(ctx, tx, c.ID, *c.ParentID); err != nil {
			if isSerializationFailure(err) {
				return apperr.Concurrency("Concurrency", "Category was modified by another user. Please refresh and try again.")
			}
			return err
		}
	}

	res, err := tx.NamedExecContext(ctx, `
        UPDATE categories
        SET parent_id = :parent_id,
            name = :name,
            description = :description,
            sort_order = :sort_order,
            is_active = :is_active,
            version = version + 1,
            updated_at = :updated_at
        WHERE id = :id AND version = :version
    `, c)
	if err != nil {
		if isSerializationFailure(err) {
			return apperr.Concurrency("Concurrency", "Category was modified by another user. Please refresh and try again.")
		}
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.Concurrency("Concurrency", "Category was modified by another user. Please refresh and try again.")
	}

	if err := tx.Commit(); err != nil {
		if isSerializationFailure(err) {
			return apperr.Concurrency("Concurrency", "Category was modified by another user. Please refresh and try again.")
		}
		return err
	}
	return nil
}

// walkParentChain rejects a parent assignment whose chain reaches id again.
// Runs on the update transaction so the walk and the write cannot straddle a
// concurrent reparent.
func walkParentChain(ctx context.Context, tx *sqlx.Tx, id, parentID string) error {
	seen := map[string]struct{}{}
	cur := parentID
	for {
		if cur == id {
			return apperr.Validation("ParentCategoryId", "Setting this parent would create a cycle")
		}
		if _, ok := seen[cur]; ok {
			return nil
		}
		seen[cur] = struct{}{}

		var next sql.NullString
		err := tx.GetContext(ctx, &next, `SELECT parent_id FROM categories WHERE id = $1`, cur)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.Validation("ParentCategoryId", "Parent category not found")
			}
			return err
		}
		if !next.Valid {
			return nil
		}
		cur = next.String
	}
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgSerializationFailure
}
