package menu

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/foodiebot/orderchat/internal/domain"
)

type MenuRepository struct {
	db *sql.DB
}

func NewMenuRepository(db *sql.DB) *MenuRepository {
	return &MenuRepository{db: db}
}

// ListAvailable returns available menu items, optionally filtered by
// category. An empty or "All" category returns everything.
func (r *MenuRepository) ListAvailable(ctx context.Context, category string) ([]domain.MenuItem, error) {
	query := `
		SELECT id, name, description, price, category, image_url, rating, is_veg, is_available, created_at
		FROM menu_items
		WHERE is_available
		ORDER BY id
	`
	args := []any{}
	if category != "" && category != "All" {
		query = `
			SELECT id, name, description, price, category, image_url, rating, is_veg, is_available, created_at
			FROM menu_items
			WHERE is_available AND category = $1
			ORDER BY id
		`
		args = append(args, category)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []domain.MenuItem
	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Price, &item.Category,
			&item.ImageURL, &item.Rating, &item.IsVeg, &item.IsAvailable, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// Categories returns the distinct categories of available items, with
// the synthetic "All" filter first.
func (r *MenuRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT category
		FROM menu_items
		WHERE is_available
		ORDER BY category
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	categories := []string{"All"}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

// GetByIDs returns the requested menu items keyed by id. Missing ids are
// simply absent from the map.
func (r *MenuRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, price, category, image_url, rating, is_veg, is_available, created_at
		FROM menu_items
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := make(map[int64]domain.MenuItem)
	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Price, &item.Category,
			&item.ImageURL, &item.Rating, &item.IsVeg, &item.IsAvailable, &item.CreatedAt); err != nil {
			return nil, err
		}
		items[item.ID] = item
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
