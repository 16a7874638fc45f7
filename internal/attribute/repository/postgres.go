package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/catalog-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindAll(ctx context.Context) ([]model.Attribute, error) {
	attributes := []model.Attribute{}
	err := r.DB.SelectContext(ctx, &attributes, `SELECT * FROM attributes ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	return attributes, nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Attribute, error) {
	var attribute model.Attribute
	err := r.DB.GetContext(ctx, &attribute, `SELECT * FROM attributes WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &attribute, nil
}
