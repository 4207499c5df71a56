package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/steelhub/parts-matcher/internal/core/domain"
	"github.com/steelhub/parts-matcher/internal/infrastructure/resilience"
)

const partColumns = `part_number, description, category, material, keywords, availability, list_price,
	diameter_mm, length_mm, width_mm, height_mm, thickness_mm, material_grade`

// CatalogRepository implements ports.CatalogStore on Postgres.
type CatalogRepository struct {
	db       *sql.DB
	executor *resilience.Executor
}

func NewCatalogRepository(db *sql.DB, executor *resilience.Executor) *CatalogRepository {
	return &CatalogRepository{db: db, executor: executor}
}

// LookupByNumber matches the identifier case/space-insensitively.
func (r *CatalogRepository) LookupByNumber(ctx context.Context, text string) (*domain.Part, error) {
	var part domain.Part
	err := r.execute(ctx, "catalog.lookup_by_number", func(ctx context.Context) error {
		row := r.db.QueryRowContext(ctx, `
SELECT `+partColumns+`
FROM parts
WHERE REPLACE(REPLACE(UPPER(part_number), ' ', ''), '-', '') = REPLACE(REPLACE(UPPER($1), ' ', ''), '-', '')
`, text)
		return scanPart(row, &part)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrPartNotFound, "lookup by number", fmt.Errorf("number %q", text))
		}
		return nil, fmt.Errorf("lookup part by number: %w", err)
	}
	return &part, nil
}

// SearchByNumberPartial orders exact > prefix > substring.
func (r *CatalogRepository) SearchByNumberPartial(ctx context.Context, text string, limit int) ([]domain.Part, error) {
	return r.queryParts(ctx, "catalog.search_number_partial", `
SELECT `+partColumns+`
FROM parts
WHERE part_number ILIKE '%' || $1 || '%'
ORDER BY CASE
	WHEN UPPER(part_number) = UPPER($1) THEN 0
	WHEN part_number ILIKE $1 || '%' THEN 1
	ELSE 2
END, part_number
LIMIT $2
`, text, limit)
}

// SearchFullText ranks by ts_rank over description and keywords.
func (r *CatalogRepository) SearchFullText(ctx context.Context, text string, limit int) ([]domain.Part, error) {
	return r.queryParts(ctx, "catalog.search_full_text", `
SELECT `+partColumns+`
FROM parts
WHERE to_tsvector('english', description || ' ' || keywords) @@ plainto_tsquery('english', $1)
ORDER BY ts_rank(to_tsvector('english', description || ' ' || keywords), plainto_tsquery('english', $1)) DESC,
	part_number
LIMIT $2
`, text, limit)
}

// SearchByDescription orders starts-with > whole-word > other substring hits.
func (r *CatalogRepository) SearchByDescription(ctx context.Context, text string, limit int) ([]domain.Part, error) {
	return r.queryParts(ctx, "catalog.search_description", `
SELECT `+partColumns+`
FROM parts
WHERE description ILIKE '%' || $1 || '%'
ORDER BY CASE
	WHEN description ILIKE $1 || '%' THEN 0
	WHEN description ~* ('\m' || $1 || '\M') THEN 1
	ELSE 2
END, part_number
LIMIT $2
`, text, limit)
}

// SearchFiltered ANDs the set filter predicates with an optional description
// substring.
func (r *CatalogRepository) SearchFiltered(ctx context.Context, text string, filters domain.SearchFilters, limit int) ([]domain.Part, error) {
	where := make([]string, 0, 6)
	args := make([]any, 0, 6)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if text = strings.TrimSpace(text); text != "" {
		where = append(where, "description ILIKE '%' || "+arg(text)+" || '%'")
	}
	if filters.Category != "" {
		where = append(where, "UPPER(category) = UPPER("+arg(filters.Category)+")")
	}
	if filters.MaterialContains != "" {
		where = append(where, "material ILIKE '%' || "+arg(filters.MaterialContains)+" || '%'")
	}
	if filters.Availability != "" {
		where = append(where, "availability = "+arg(string(filters.Availability)))
	}
	if filters.InStockOnly {
		where = append(where, "availability = 'in_stock'")
	}
	if filters.MinPrice > 0 {
		where = append(where, "list_price >= "+arg(filters.MinPrice))
	}
	if filters.MaxPrice > 0 {
		where = append(where, "list_price <= "+arg(filters.MaxPrice))
	}
	if len(where) == 0 {
		return nil, nil
	}

	query := `
SELECT ` + partColumns + `
FROM parts
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY part_number
LIMIT ` + arg(limit)

	return r.queryParts(ctx, "catalog.search_filtered", query, args...)
}

func (r *CatalogRepository) queryParts(ctx context.Context, operation, query string, args ...any) ([]domain.Part, error) {
	var parts []domain.Part
	err := r.execute(ctx, operation, func(ctx context.Context) error {
		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		parts = parts[:0]
		for rows.Next() {
			var part domain.Part
			if err := scanPart(rows, &part); err != nil {
				return err
			}
			parts = append(parts, part)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return parts, nil
}

func (r *CatalogRepository) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if r.executor == nil {
		return fn(ctx)
	}
	return r.executor.Execute(ctx, operation, fn)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPart(row rowScanner, part *domain.Part) error {
	var availability string
	err := row.Scan(
		&part.Number, &part.Description, &part.Category, &part.Material, &part.Keywords,
		&availability, &part.ListPrice,
		&part.DiameterMM, &part.LengthMM, &part.WidthMM, &part.HeightMM, &part.ThicknessMM,
		&part.MaterialGrade,
	)
	if err != nil {
		return err
	}
	part.Availability = domain.AvailabilityStatus(availability)
	return nil
}
