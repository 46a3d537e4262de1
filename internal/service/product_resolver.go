package service

import (
	"context"

	"github.com/Sivanthsiv/food-ecommerce/internal/apperr"
	"github.com/Sivanthsiv/food-ecommerce/internal/catalog"
	"github.com/Sivanthsiv/food-ecommerce/internal/models"
	"github.com/Sivanthsiv/food-ecommerce/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LineRequest is one cart line before product resolution
type LineRequest struct {
	Ref      models.ProductRef
	Quantity int
}

// ResolvedLine pairs a cart line with the persisted product it refers to
type ResolvedLine struct {
	Product  models.Product
	Quantity int
}

// ProductResolver maps cart references onto persisted products, backfilling
// static catalog entries into the product store on first use.
type ProductResolver struct {
	products ProductStore
	catalog  *catalog.Catalog
	logger   *zap.Logger
}

func NewProductResolver(products ProductStore, cat *catalog.Catalog) *ProductResolver {
	return &ProductResolver{
		products: products,
		catalog:  cat,
		logger:   newLogger(),
	}
}

// Resolve returns one resolved line per request, in request order. Prices are
// the current persisted prices.
func (r *ProductResolver) Resolve(ctx context.Context, lines []LineRequest) ([]ResolvedLine, error) {
	ctx, span := util.StartSpan(ctx, "ProductResolver.Resolve", attribute.Int("lines", len(lines)))
	defer span.End()

	var ids, slugs []string
	seenID := make(map[string]bool)
	staticBySlug := make(map[string]catalog.Item)
	slugOf := make(map[string]string)

	for _, line := range lines {
		switch line.Ref.Kind {
		case models.StoreRef:
			if !seenID[line.Ref.ID] {
				seenID[line.Ref.ID] = true
				ids = append(ids, line.Ref.ID)
			}
		default:
			item, ok := r.catalog.Lookup(line.Ref.ID)
			if !ok {
				return nil, apperr.InvalidInput("Product not found")
			}
			slug := item.Slug()
			slugOf[line.Ref.ID] = slug
			if _, seen := staticBySlug[slug]; !seen {
				staticBySlug[slug] = item
				slugs = append(slugs, slug)
			}
		}
	}

	var byIDList, bySlugList []models.Product
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byIDList, err = r.products.GetProductsByIDs(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		bySlugList, err = r.products.GetProductsBySlugs(gctx, slugs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, unavailable(err)
	}

	byID := make(map[string]models.Product, len(byIDList))
	for _, p := range byIDList {
		byID[p.ID] = p
	}
	bySlug := make(map[string]models.Product, len(bySlugList))
	for _, p := range bySlugList {
		bySlug[p.Slug] = p
	}

	for _, slug := range slugs {
		if _, ok := bySlug[slug]; ok {
			continue
		}
		item := staticBySlug[slug]
		seed := item.Product()
		product, err := r.products.UpsertProductBySlug(ctx, &seed)
		if err != nil {
			return nil, unavailable(err)
		}
		util.ProductsBackfilledTotal.Inc()
		r.logger.Info("Backfilled static product",
			zap.String("static_id", item.ID),
			zap.String("slug", slug),
			zap.String("product_id", product.ID))
		bySlug[slug] = *product
	}

	resolved := make([]ResolvedLine, 0, len(lines))
	for _, line := range lines {
		var product models.Product
		var ok bool
		if line.Ref.Kind == models.StoreRef {
			product, ok = byID[line.Ref.ID]
		} else {
			product, ok = bySlug[slugOf[line.Ref.ID]]
		}
		if !ok {
			return nil, apperr.InvalidInput("Product not found")
		}
		resolved = append(resolved, ResolvedLine{Product: product, Quantity: line.Quantity})
	}
	return resolved, nil
}
