// Package catalog holds the static, in-code product list that predates the
// persisted product store, plus the slug derivation shared by both.
package catalog

import (
	"regexp"
	"strings"

	"github.com/Sivanthsiv/food-ecommerce/internal/models"
)

// Item is a static catalog entry. Prices are in paise.
type Item struct {
	ID          string
	Name        string
	Description string
	Category    string
	PricePaise  int64
	Image       string
	IsVeg       bool
	SpiceLevel  string
	Weight      string
	ShelfLife   string
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases name and joins alphanumeric runs with single hyphens.
func Slugify(name string) string {
	s := nonSlugChars.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// Slug returns the persisted-store key for the item.
func (i Item) Slug() string {
	return Slugify(i.Name)
}

// Product builds the persisted product the item backfills into.
func (i Item) Product() models.Product {
	return models.Product{
		Slug:        i.Slug(),
		Name:        i.Name,
		Description: optional(i.Description),
		Category:    i.Category,
		PricePaise:  i.PricePaise,
		ImageURL:    optional(i.Image),
		IsVeg:       i.IsVeg,
		SpiceLevel:  optional(i.SpiceLevel),
		Weight:      optional(i.Weight),
		ShelfLife:   optional(i.ShelfLife),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Catalog is an immutable id-indexed set of static items
type Catalog struct {
	items []Item
	byID  map[string]Item
}

func New(items []Item) *Catalog {
	byID := make(map[string]Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	return &Catalog{items: items, byID: byID}
}

// Default returns the storefront's built-in catalog.
func Default() *Catalog {
	return New(defaultItems)
}

func (c *Catalog) Lookup(id string) (Item, bool) {
	item, ok := c.byID[id]
	return item, ok
}

func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

var defaultItems = []Item{
	{ID: "1", Name: "Hyderabadi Veg Biryani Rice", Category: "lunch", PricePaise: 19900, Image: "/products/biryani.jpg", IsVeg: true, SpiceLevel: "medium", ShelfLife: "12 months", Weight: "250g",
		Description: "Authentic Hyderabadi flavors with aromatic basmati rice, mixed vegetables, and traditional spices. Ready in just 5 minutes."},
	{ID: "2", Name: "Vegetable Pulao", Category: "lunch", PricePaise: 14900, Image: "/products/pulao.jpg", IsVeg: true, SpiceLevel: "mild", ShelfLife: "12 months", Weight: "250g",
		Description: "Fragrant basmati rice cooked with fresh vegetables and aromatic spices. A wholesome meal ready in minutes."},
	{ID: "3", Name: "Dal Makhani", Category: "dinner", PricePaise: 17900, Image: "/products/dal-makhani.jpg", IsVeg: true, SpiceLevel: "mild", ShelfLife: "9 months", Weight: "300g",
		Description: "Creamy black lentils slow-cooked with butter and aromatic spices. A North Indian delicacy that pairs perfectly with rice or roti."},
	{ID: "4", Name: "Paneer Butter Masala", Category: "dinner", PricePaise: 21900, Image: "/products/paneer-butter.jpg", IsVeg: true, SpiceLevel: "mild", ShelfLife: "9 months", Weight: "300g",
		Description: "Soft paneer cubes in a rich, creamy tomato-based gravy. A restaurant-style dish ready at home in minutes."},
	{ID: "5", Name: "Upma Mix", Category: "breakfast", PricePaise: 8900, Image: "/products/upma.jpg", IsVeg: true, SpiceLevel: "mild", ShelfLife: "12 months", Weight: "200g",
		Description: "Traditional South Indian breakfast made easy. Just add water and cook for a nutritious, filling breakfast."},
	{ID: "6", Name: "Poha Mix", Category: "breakfast", PricePaise: 7900, Image: "/products/poha.jpg", IsVeg: true, SpiceLevel: "mild", ShelfLife: "12 months", Weight: "200g",
		Description: "Light and fluffy flattened rice with the perfect blend of spices. A quick and healthy breakfast option."},
	{ID: "7", Name: "Chana Masala", Category: "dinner", PricePaise: 24900, Image: "/products/chicken-curry.jpg", IsVeg: true, SpiceLevel: "hot", ShelfLife: "9 months", Weight: "300g",
		Description: "Hearty chickpeas in a spicy, aromatic tomato gravy. Authentic home-style taste with a bold masala blend."},
	{ID: "8", Name: "Millet Khichdi", Category: "lunch", PricePaise: 12900, Image: "/products/millet-khichdi.jpg", IsVeg: true, SpiceLevel: "mild", ShelfLife: "12 months", Weight: "200g",
		Description: "Nutritious millet-based khichdi with lentils and vegetables. A healthy, fiber-rich meal for the health-conscious."},
	{ID: "9", Name: "Masala Oats", Category: "breakfast", PricePaise: 9900, Image: "/products/masala-oats.jpg", IsVeg: true, SpiceLevel: "medium", ShelfLife: "12 months", Weight: "200g",
		Description: "Savory oats with Indian spices and vegetables. A healthy, filling breakfast that keeps you energized all morning."},
	{ID: "10", Name: "Rajma Masala", Category: "dinner", PricePaise: 16900, Image: "/products/rajma.jpg", IsVeg: true, SpiceLevel: "medium", ShelfLife: "12 months", Weight: "300g",
		Description: "Hearty kidney beans in a thick, spiced tomato gravy. A Punjabi favorite that pairs perfectly with steamed rice."},
	{ID: "11", Name: "Murukku", Category: "snacks", PricePaise: 12900, Image: "/products/murukku.jpg", IsVeg: true, SpiceLevel: "mild", ShelfLife: "6 months", Weight: "200g",
		Description: "Crispy, spiral-shaped South Indian snack made with rice flour and spices. Perfect tea-time companion."},
	{ID: "12", Name: "Mixture", Category: "snacks", PricePaise: 11900, Image: "/products/mixture.jpg", IsVeg: true, SpiceLevel: "medium", ShelfLife: "6 months", Weight: "200g",
		Description: "Crunchy mix of sev, peanuts, and savory bites. A classic Indian snack for any occasion."},
	{ID: "15", Name: "Coconut Chutney Powder", Category: "powders", PricePaise: 12900, Image: "/products/chutney-powder.jpg", IsVeg: true, SpiceLevel: "mild", ShelfLife: "12 months", Weight: "200g",
		Description: "Homemade coconut chutney powder with roasted lentils and gentle spices. Perfect with idli, dosa, or rice."},
	{ID: "16", Name: "Sambar Masala Powder", Category: "powders", PricePaise: 14900, Image: "/products/masala-powder.jpg", IsVeg: true, SpiceLevel: "medium", ShelfLife: "12 months", Weight: "200g",
		Description: "Homemade sambar masala powder with roasted spices for a rich, aromatic sambar."},
	{ID: "13", Name: "Weekly Meal Combo", Category: "combos", PricePaise: 99900, Image: "/products/combo-weekly.jpg", IsVeg: true, SpiceLevel: "medium", ShelfLife: "9 months", Weight: "1.5kg",
		Description: "Complete meal solution for a week. Includes 3 breakfast items, 4 lunch options, and 4 dinner choices."},
	{ID: "14", Name: "Breakfast Bundle", Category: "combos", PricePaise: 34900, Image: "/products/combo-breakfast.jpg", IsVeg: true, SpiceLevel: "mild", ShelfLife: "12 months", Weight: "600g",
		Description: "Start your mornings right with our breakfast bundle. Includes Upma, Poha, and Masala Oats mixes."},
}
