package store

import (
	"context"
	"fmt"

	"github.com/Sivanthsiv/food-ecommerce/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const productColumns = `id, slug, name, description, category, price_paise, image_url,
	is_veg, spice_level, weight, shelf_life, created_at, updated_at`

// GetProductsByIDs retrieves multiple products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In("SELECT "+productColumns+" FROM products WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.Product
	err = s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// GetProductsBySlugs retrieves multiple products by slug
func (s *Store) GetProductsBySlugs(ctx context.Context, slugs []string) ([]models.Product, error) {
	if len(slugs) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In("SELECT "+productColumns+" FROM products WHERE slug IN (?)", slugs)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.Product
	err = s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// UpsertProductBySlug inserts p unless a product with the same slug exists and
// returns the stored row either way. The no-op DO UPDATE makes RETURNING yield
// the existing row, so concurrent callers converge on one product without a
// check-then-insert race.
func (s *Store) UpsertProductBySlug(ctx context.Context, p *models.Product) (*models.Product, error) {
	if p.Slug == "" {
		return nil, fmt.Errorf("upsert product: empty slug")
	}
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}

	query := `
		INSERT INTO products (id, slug, name, description, category, price_paise, image_url,
			is_veg, spice_level, weight, shelf_life)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
		RETURNING ` + productColumns

	var product models.Product
	err := s.db.GetContext(ctx, &product, query,
		id, p.Slug, p.Name, p.Description, p.Category, p.PricePaise, p.ImageURL,
		p.IsVeg, p.SpiceLevel, p.Weight, p.ShelfLife)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert product %q: %w", p.Slug, err)
	}
	return &product, nil
}
