package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"storefront/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

//go:embed seed.json
var seedData []byte

// SortKey determines the ordering of product listings.
type SortKey string

const (
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortRating    SortKey = "rating"
	SortNewest    SortKey = "newest"
)

// Filter narrows and orders a product listing. Zero values mean "no filter".
type Filter struct {
	Category string
	Query    string
	Sort     SortKey
}

// Store is the static, read-only product catalog. Products, categories and
// banners are loaded once at startup and never mutated.
type Store struct {
	products   []domain.Product
	byID       map[string]domain.Product
	categories []domain.Category
	banners    []domain.Banner
}

type seed struct {
	Categories []domain.Category `json:"categories"`
	Banners    []domain.Banner   `json:"banners"`
	Products   []domain.Product  `json:"products"`
}

// NewStore loads the embedded catalog seed.
func NewStore() (*Store, error) {
	return NewStoreFromJSON(seedData)
}

// NewStoreFromJSON builds a catalog store from a JSON seed document.
func NewStoreFromJSON(data []byte) (*Store, error) {
	var s seed
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse catalog seed: %w", err)
	}

	byID := make(map[string]domain.Product, len(s.Products))
	for _, p := range s.Products {
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id in catalog seed: %s", p.ID)
		}
		byID[p.ID] = p
	}

	return &Store{
		products:   s.Products,
		byID:       byID,
		categories: s.Categories,
		banners:    s.Banners,
	}, nil
}

// Products returns the catalog entries matching the filter, ordered by the
// requested sort key. The returned slice is a copy; callers may not mutate
// the catalog through it.
func (s *Store) Products(filter Filter) []domain.Product {
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	result := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Title), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			continue
		}
		result = append(result, p)
	}

	switch filter.Sort {
	case SortPriceAsc:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Price < result[j].Price })
	case SortPriceDesc:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Price > result[j].Price })
	case SortRating:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Rating.Rate > result[j].Rating.Rate })
	case SortNewest:
		sort.SliceStable(result, func(i, j int) bool { return result[i].IsNew && !result[j].IsNew })
	}

	return result
}

// ProductByID returns the product with the given ID.
func (s *Store) ProductByID(id string) (domain.Product, error) {
	p, ok := s.byID[id]
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	return p, nil
}

// Categories returns all catalog categories.
func (s *Store) Categories() []domain.Category {
	out := make([]domain.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// Banners returns all promotional banners.
func (s *Store) Banners() []domain.Banner {
	out := make([]domain.Banner, len(s.banners))
	copy(out, s.banners)
	return out
}
