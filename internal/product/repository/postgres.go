package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/fekuna/catalog-service/internal/apperr"
	"github.com/fekuna/catalog-service/internal/model"
	"github.com/fekuna/catalog-service/internal/product/dto"
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

func (r *PGRepository) Create(ctx context.Context, p *model.Product, links []model.ProductCategory, attrs []model.ProductAttribute, images []model.ProductImage) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO products (id, sku, name, description, base_price, is_active, version, created_at, updated_at)
        VALUES (:id, :sku, :name, :description, :base_price, :is_active, :version, :created_at, :updated_at)
    `
	if _, err := tx.NamedExecContext(ctx, query, p); err != nil {
		if isUniqueViolation(err) {
			return apperr.Validation("SKU", "SKU already exists")
		}
		return err
	}

	if err := insertChildren(ctx, tx, links, attrs, images); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product, links []model.ProductCategory, attrs []model.ProductAttribute, images []model.ProductImage) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Replace-all child collections: children have no identity meaningful
	// outside their parent, so delete-then-insert avoids diffing.
	for _, q := range []string{
		`DELETE FROM product_categories WHERE product_id = $1`,
		`DELETE FROM product_attributes WHERE product_id = $1`,
		`DELETE FROM product_images WHERE product_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, q, p.ID); err != nil {
			return err
		}
	}

	if err := insertChildren(ctx, tx, links, attrs, images); err != nil {
		return err
	}

	res, err := tx.NamedExecContext(ctx, `
        UPDATE products
        SET name = :name,
            description = :description,
            base_price = :base_price,
            is_active = :is_active,
            version = version + 1,
            updated_at = :updated_at
        WHERE id = :id AND version = :version
    `, p)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.Concurrency("Concurrency", "Product was modified by another user. Please refresh and try again.")
	}

	if err := tx.Commit(); err != nil {
		if isSerializationFailure(err) {
			return apperr.Concurrency("Concurrency", "Product was modified by another user. Please refresh and try again.")
		}
		return err
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Cascade to owned children only. Category and attribute master records
	// are shared reference data and stay untouched.
	for _, q := range []string{
		`DELETE FROM variant_attributes WHERE variant_id IN (SELECT id FROM product_variants WHERE product_id = $1)`,
		`DELETE FROM product_variants WHERE product_id = $1`,
		`DELETE FROM product_categories WHERE product_id = $1`,
		`DELETE FROM product_attributes WHERE product_id = $1`,
		`DELETE FROM product_images WHERE product_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("Id", "Product not found")
	}

	return tx.Commit()
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	err := r.DB.GetContext(ctx, &p, `SELECT * FROM products WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) LoadAggregateByID(ctx context.Context, id string) (*model.ProductAggregate, error) {
	var p model.Product
	err := r.DB.GetContext(ctx, &p, `SELECT * FROM products WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r.loadAggregate(ctx, p)
}

func (r *PGRepository) LoadAggregateBySKU(ctx context.Context, sku string) (*model.ProductAggregate, error) {
	var p model.Product
	err := r.DB.GetContext(ctx, &p, `SELECT * FROM products WHERE sku = $1 LIMIT 1`, sku)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r.loadAggregate(ctx, p)
}

type categoryLinkRow struct {
	model.Category
	LinkProductID string `db:"link_product_id"`
	IsPrimary     bool   `db:"link_is_primary"`
}

func (r *PGRepository) loadAggregate(ctx context.Context, p model.Product) (*model.ProductAggregate, error) {
	agg := &model.ProductAggregate{
		Product:           p,
		VariantAttributes: map[string][]model.VariantAttribute{},
		AttributeDefs:     map[string]model.Attribute{},
	}

	var linkRows []categoryLinkRow
	err := r.DB.SelectContext(ctx, &linkRows, `
        SELECT c.*, pc.product_id AS link_product_id, pc.is_primary AS link_is_primary
        FROM product_categories pc
        JOIN categories c ON c.id = pc.category_id
        WHERE pc.product_id = $1
        ORDER BY pc.is_primary DESC, c.name
    `, p.ID)
	if err != nil {
		return nil, err
	}
	for _, row := range linkRows {
		agg.Categories = append(agg.Categories, model.CategoryLink{Category: row.Category, IsPrimary: row.IsPrimary})
	}

	if err := r.DB.SelectContext(ctx, &agg.Attributes,
		`SELECT * FROM product_attributes WHERE product_id = $1`, p.ID); err != nil {
		return nil, err
	}

	if err := r.DB.SelectContext(ctx, &agg.Images,
		`SELECT * FROM product_images WHERE product_id = $1 ORDER BY display_order`, p.ID); err != nil {
		return nil, err
	}

	if err := r.DB.SelectContext(ctx, &agg.Variants,
		`SELECT * FROM product_variants WHERE product_id = $1 ORDER BY created_at`, p.ID); err != nil {
		return nil, err
	}

	if len(agg.Variants) > 0 {
		variantIDs := make([]string, 0, len(agg.Variants))
		for _, v := range agg.Variants {
			variantIDs = append(variantIDs, v.ID)
		}
		query, args, err := sqlx.In(`SELECT * FROM variant_attributes WHERE variant_id IN (?)`, variantIDs)
		if err != nil {
			return nil, err
		}
		var variantAttrs []model.VariantAttribute
		if err := r.DB.SelectContext(ctx, &variantAttrs, r.DB.Rebind(query), args...); err != nil {
			return nil, err
		}
		for _, va := range variantAttrs {
			agg.VariantAttributes[va.VariantID] = append(agg.VariantAttributes[va.VariantID], va)
		}
	}

	attrIDs := map[string]struct{}{}
	for _, pa := range agg.Attributes {
		attrIDs[pa.AttributeID] = struct{}{}
	}
	for _, vas := range agg.VariantAttributes {
		for _, va := range vas {
			attrIDs[va.AttributeID] = struct{}{}
		}
	}
	if len(attrIDs) > 0 {
		ids := make([]string, 0, len(attrIDs))
		for id := range attrIDs {
			ids = append(ids, id)
		}
		defs, err := r.AttributesByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		agg.AttributeDefs = defs
	}

	return agg, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.ProductSummary, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.SearchTerm != "" {
		conditions = append(conditions, "(name ILIKE :search OR sku ILIKE :search OR description ILIKE :search)")
		args["search"] = "%" + f.SearchTerm + "%"
	}
	if f.IsActive != nil {
		conditions = append(conditions, "is_active = :is_active")
		args["is_active"] = *f.IsActive
	}
	if f.MinPrice != nil {
		conditions = append(conditions, "base_price >= :min_price")
		args["min_price"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		conditions = append(conditions, "base_price <= :max_price")
		args["max_price"] = *f.MaxPrice
	}
	if f.CategoryID != "" {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = products.id AND pc.category_id = :category_id)")
		args["category_id"] = f.CategoryID
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	// Total count before pagination.
	var count int
	rows, err := r.DB.NamedQueryContext(ctx, "SELECT count(*) FROM products"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, err
		}
	}

	// Sort keys are whitelisted by ProductFilters.Normalize.
	orderBy := map[string]string{
		"name":      "name",
		"price":     "base_price",
		"sku":       "sku",
		"createdAt": "created_at",
	}[f.SortBy]
	if orderBy == "" {
		orderBy = "created_at"
	}
	direction := "ASC"
	if f.SortDescending {
		direction = "DESC"
	}

	query := fmt.Sprintf("SELECT * FROM products%s ORDER BY %s %s LIMIT %d OFFSET %d",
		whereClause, orderBy, direction, f.PageSize, (f.Page-1)*f.PageSize)

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var products []model.Product
	if err := nstmt.SelectContext(ctx, &products, args); err != nil {
		return nil, 0, err
	}
	if len(products) == 0 {
		return []model.ProductSummary{}, count, nil
	}

	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}

	imagesByProduct, err := r.imagesByProducts(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	linksByProduct, err := r.categoryLinksByProducts(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]model.ProductSummary, 0, len(products))
	for _, p := range products {
		summaries = append(summaries, model.ProductSummary{
			Product:    p,
			Images:     imagesByProduct[p.ID],
			Categories: linksByProduct[p.ID],
		})
	}
	return summaries, count, nil
}

func (r *PGRepository) imagesByProducts(ctx context.Context, ids []string) (map[string][]model.ProductImage, error) {
	query, args, err := sqlx.In(`SELECT * FROM product_images WHERE product_id IN (?) ORDER BY display_order`, ids)
	if err != nil {
		return nil, err
	}
	var images []model.ProductImage
	if err := r.DB.SelectContext(ctx, &images, r.DB.Rebind(query), args...); err != nil {
		return nil, err
	}
	out := map[string][]model.ProductImage{}
	for _, img := range images {
		out[img.ProductID] = append(out[img.ProductID], img)
	}
	return out, nil
}

func (r *PGRepository) categoryLinksByProducts(ctx context.Context, ids []string) (map[string][]model.CategoryLink, error) {
	query, args, err := sqlx.In(`
        SELECT c.*, pc.product_id AS link_product_id, pc.is_primary AS link_is_primary
        FROM product_categories pc
        JOIN categories c ON c.id = pc.category_id
        WHERE pc.product_id IN (?)
        ORDER BY pc.is_primary DESC, c.name
    `, ids)
	if err != nil {
		return nil, err
	}
	var rows []categoryLinkRow
	if err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(query), args...); err != nil {
		return nil, err
	}
	out := map[string][]model.CategoryLink{}
	for _, row := range rows {
		out[row.LinkProductID] = append(out[row.LinkProductID], model.CategoryLink{Category: row.Category, IsPrimary: row.IsPrimary})
	}
	return out, nil
}

func (r *PGRepository) IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM products WHERE sku = $1`
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

func (r *PGRepository) MissingCategoryIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id FROM categories WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var found []string
	if err := r.DB.SelectContext(ctx, &found, r.DB.Rebind(query), args...); err != nil {
		return nil, err
	}
	foundSet := map[string]struct{}{}
	for _, id := range found {
		foundSet[id] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := foundSet[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
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

func insertChildren(ctx context.Context, tx *sqlx.Tx, links []model.ProductCategory, attrs []model.ProductAttribute, images []model.ProductImage) error {
	for _, link := range links {
		_, err := tx.NamedExecContext(ctx, `
            INSERT INTO product_categories (product_id, category_id, is_primary)
            VALUES (:product_id, :category_id, :is_primary)
        `, link)
		if err != nil {
			return err
		}
	}
	for _, attr := range attrs {
		_, err := tx.NamedExecContext(ctx, `
            INSERT INTO product_attributes (id, product_id, attribute_id, value)
            VALUES (:id, :product_id, :attribute_id, :value)
        `, attr)
		if err != nil {
			return err
		}
	}
	for _, img := range images {
		_, err := tx.NamedExecContext(ctx, `
            INSERT INTO product_images (id, product_id, image_url, alt_text, display_order, is_primary)
            VALUES (:id, :product_id, :image_url, :alt_text, :display_order, :is_primary)
        `, img)
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
