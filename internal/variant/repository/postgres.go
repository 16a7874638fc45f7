package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/fekuna/catalog-service/internal/apperr"
	"github.com/fekuna/catalog-service/internal/model"
)

const (
	pgSerializationFailure = "40001"
	pgUniqueViolation      = "23505"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ProductRef(ctx context.Context, productID string) (*model.Product, error) {
	var p model.Product
	err := r.DB.GetContext(ctx, &p, `SELECT * FROM products WHERE id = $1 LIMIT 1`, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) FindByID(ctx context.Context, productID, variantID string) (*model.ProductVariant, error) {
	var v model.ProductVariant
	err := r.DB.GetContext(ctx, &v,
		`SELECT * FROM product_variants WHERE id = $1 AND product_id = $2 LIMIT 1`, variantID, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

type variantRow struct {
	model.ProductVariant
	ProductBasePrice decimal.Decimal `db:"product_base_price"`
	ProductSKU       string          `db:"product_sku"`
}

func (r *PGRepository) LoadAggregate(ctx context.Context, productID, variantID string) (*model.VariantAggregate, error) {
	var row variantRow
	err := r.DB.GetContext(ctx, &row, `
        SELECT v.*, p.base_price AS product_base_price, p.sku AS product_sku
        FROM product_variants v
        JOIN products p ON p.id = v.product_id
        WHERE v.id = $1 AND v.product_id = $2
        LIMIT 1
    `, variantID, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	aggs, err := r.attachAttributes(ctx, []variantRow{row})
	if err != nil {
		return nil, err
	}
	return &aggs[0], nil
}

func (r *PGRepository) ListAggregates(ctx context.Context, productID string) ([]model.VariantAggregate, error) {
	var rows []variantRow
	err := r.DB.SelectContext(ctx, &rows, `
        SELECT v.*, p.base_price AS product_base_price, p.sku AS product_sku
        FROM product_variants v
        JOIN products p ON p.id = v.product_id
        WHERE v.product_id = $1
        ORDER BY v.created_at
    `, productID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []model.VariantAggregate{}, nil
	}
	return r.attachAttributes(ctx, rows)
}

func (r *PGRepository) attachAttributes(ctx context.Context, rows []variantRow) ([]model.VariantAggregate, error) {
	variantIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		variantIDs = append(variantIDs, row.ID)
	}

	query, args, err := sqlx.In(`SELECT * FROM variant_attributes WHERE variant_id IN (?)`, variantIDs)
	if err != nil {
		return nil, err
	}
	var attrs []model.VariantAttribute
	if err := r.DB.SelectContext(ctx, &attrs, r.DB.Rebind(query), args...); err != nil {
		return nil, err
	}

	byVariant := map[string][]model.VariantAttribute{}
	attrIDs := map[string]struct{}{}
	for _, va := range attrs {
		byVariant[va.VariantID] = append(byVariant[va.VariantID], va)
		attrIDs[va.AttributeID] = struct{}{}
	}

	defs := map[string]model.Attribute{}
	if len(attrIDs) > 0 {
		ids := make([]string, 0, len(attrIDs))
		for id := range attrIDs {
			ids = append(ids, id)
		}
		defs, err = r.AttributesByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	out := make([]model.VariantAggregate, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.VariantAggregate{
			Variant:       row.ProductVariant,
			ProductSKU:    row.ProductSKU,
			BasePrice:     row.ProductBasePrice,
			Attributes:    byVariant[row.ID],
			AttributeDefs: defs,
		})
	}
	return out, nil
}

func (r *PGRepository) Create(ctx context.Context, v *model.ProductVariant, attrs []model.VariantAttribute) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
        INSERT INTO product_variants (id, product_id, sku, name, price, stock_quantity, is_active, version, created_at, updated_at)
        VALUES (:id, :product_id, :sku, :name, :price, :stock_quantity, :is_active, :version, :created_at, :updated_at)
    `, v)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Validation("SKU", "SKU already exists")
		}
		return err
	}

	if err := insertVariantAttributes(ctx, tx, attrs); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PGRepository) Update(ctx context.Context, v *model.ProductVariant, attrs []model.VariantAttribute) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM variant_attributes WHERE variant_id = $1`, v.ID); err != nil {
		return err
	}
	if err := insertVariantAttributes(ctx, tx, attrs); err != nil {
		return err
	}

	res, err := tx.NamedExecContext(ctx, `
        UPDATE product_variants
        SET name = :name,
            price = :price,
            stock_quantity = :stock_quantity,
            is_active = :is_active,
            version = version + 1,
            updated_at = :updated_at
        WHERE id = :id AND version = :version
    `, v)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.Concurrency("Concurrency", "Variant was modified by another user. Please refresh and try again.")
	}

	return tx.Commit()
}

func (r *PGRepository) Delete(ctx context.Context, productID, variantID string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM variant_attributes WHERE variant_id = $1`, variantID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM product_variants WHERE id = $1 AND product_id = $2`, variantID, productID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("VariantId", "Variant not found")
	}

	return tx.Commit()
}

// AdjustStock performs the read-check-write sequence under serializable
// isolation. The stock sufficiency decision is made against the in-transaction
// read, never against cached data; the version guard on the UPDATE catches
// ordinary update races while serializable isolation closes the concurrent
// read-check-write window. Conflicts surface as a Concurrency error with no
// retry: the caller must resubmit.
func (r *PGRepository) AdjustStock(ctx context.Context, productID, variantID string, delta int) error {
	tx, err := r.DB.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var row struct {
		StockQuantity int   `db:"stock_quantity"`
		Version       int64 `db:"version"`
	}
	err = tx.GetContext(ctx, &row, `
        SELECT v.stock_quantity, v.version
        FROM product_variants v
        JOIN products p ON p.id = v.product_id
        WHERE v.id = $1 AND v.product_id = $2
    `, variantID, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("VariantId", "Variant not found")
		}
		if isSerializationFailure(err) {
			return apperr.Concurrency("Concurrency", "Stock was modified by another user. Please refresh and try again.")
		}
		return err
	}

	if delta < 0 && -delta > row.StockQuantity {
		return apperr.InsufficientStock("Quantity", "Insufficient stock")
	}

	res, err := tx.ExecContext(ctx, `
        UPDATE product_variants
        SET stock_quantity = stock_quantity + $1,
            version = version + 1,
            updated_at = now()
        WHERE id = $2 AND version = $3
    `, delta, variantID, row.Version)
	if err != nil {
		if isSerializationFailure(err) {
			return apperr.Concurrency("Concurrency", "Stock was modified by another user. Please refresh and try again.")
		}
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.Concurrency("Concurrency", "Stock was modified by another user. Please refresh and try again.")
	}

	if err := tx.Commit(); err != nil {
		if isSerializationFailure(err) {
			return apperr.Concurrency("Concurrency", "Stock was modified by another user. Please refresh and try again.")
		}
		return err
	}
	return nil
}

func (r *PGRepository) IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM product_variants WHERE sku = $1`
	args := []interface{}{sku}
	if excludeID != "" {
		query += ` AND id != $2`
		args = append(args, excludeID)
	}
	if err := r.DB.GetContext(ctx, &count, query, args...); err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *PGRepository) AttributesByIDs(ctx context.Context, ids []string) (map[string]model.Attribute, error) {
	if len(ids) == 0 {
		return map[string]model.Attribute{}, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM attributes WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var attrs []model.Attribute
	if err := r.DB.SelectContext(ctx, &attrs, r.DB.Rebind(query), args...); err != nil {
		return nil, err
	}
	out := make(map[string]model.Attribute, len(attrs))
	for _, a := range attrs {
		out[a.ID] = a
	}
	return out, nil
}

func insertVariantAttributes(ctx context.Context, tx *sqlx.Tx, attrs []model.VariantAttribute) error {
	for _, attr := range attrs {
		_, err := tx.NamedExecContext(ctx, `
            INSERT INTO variant_attributes (id, variant_id, attribute_id, value)
            VALUES (:id, :variant_id, :attribute_id, :value)
        `, attr)
		if err != nil {
			return err
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgSerializationFailure
}
