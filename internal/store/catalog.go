package store

import (
	"context"
	"fmt"

	"github.com/canline/labelstation/internal/core/db"
	"github.com/canline/labelstation/internal/types"
)

// Catalog loads the product and brand reference data.
// Reference entities are immutable from the station's perspective and are
// loaded once per session.
type Catalog struct {
	queries *db.Queries
}

// NewCatalog returns a catalog over the loaded queries.
func NewCatalog(queries *db.Queries) *Catalog {
	return &Catalog{queries: queries}
}

// Brands returns all brands ordered by name.
func (c *Catalog) Brands(ctx context.Context) ([]types.Brand, error) {
	var brands []types.Brand
	if err := c.queries.Select(ctx, "list-brands", &brands); err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	return brands, nil
}

// Products returns all products ordered by name, with brand links attached.
func (c *Catalog) Products(ctx context.Context) ([]types.Product, error) {
	var products []types.Product
	if err := c.queries.Select(ctx, "list-products", &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	var links []struct {
		ProductID string `db:"product_id"`
		BrandID   string `db:"brand_id"`
	}
	if err := c.queries.Select(ctx, "list-product-brands", &links); err != nil {
		return nil, fmt.Errorf("list product brands: %w", err)
	}

	byProduct := make(map[string][]string, len(links))
	for _, l := range links {
		byProduct[l.ProductID] = append(byProduct[l.ProductID], l.BrandID)
	}
	for i := range products {
		products[i].BrandIDs = byProduct[products[i].ID]
	}
	return products, nil
}

// AddBrand inserts a brand. Provisioning only.
func (c *Catalog) AddBrand(ctx context.Context, b types.Brand) error {
	if _, err := c.queries.Exec(ctx, "insert-brand", b.ID, b.Name, b.Indicator); err != nil {
		return fmt.Errorf("insert brand %s: %w", b.ID, err)
	}
	return nil
}

// AddProduct inserts a product and its brand links. Provisioning only.
func (c *Catalog) AddProduct(ctx context.Context, p types.Product) error {
	if _, err := c.queries.Exec(ctx, "insert-product",
		p.ID, p.Name, p.Code, p.Ingredients, p.RNE, p.RNPA); err != nil {
		return fmt.Errorf("insert product %s: %w", p.ID, err)
	}
	for _, brandID := range p.BrandIDs {
		if _, err := c.queries.Exec(ctx, "insert-product-brand", p.ID, brandID); err != nil {
			return fmt.Errorf("link product %s to brand %s: %w", p.ID, brandID, err)
		}
	}
	return nil
}
