package transport

import (
	"net/http"
	"testing"

	"storefront/internal/domain"
)

func TestListProducts(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, http.MethodGet, "/api/products", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		Products []domain.Product `json:"products"`
		Total    int              `json:"total"`
	}
	decodeBody(t, rec, &resp)

	if resp.Total != 10 || len(resp.Products) != 10 {
		t.Errorf("Expected 10 products, got total=%d len=%d", resp.Total, len(resp.Products))
	}
}

func TestListProductsFiltered(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, http.MethodGet, "/api/products?category=electronics&sort=price_asc", "", nil)

	var resp struct {
		Products []domain.Product `json:"products"`
	}
	decodeBody(t, rec, &resp)

	if len(resp.Products) != 4 {
		t.Fatalf("Expected 4 electronics products, got %d", len(resp.Products))
	}
	for i := 1; i < len(resp.Products); i++ {
		if resp.Products[i-1].Price > resp.Products[i].Price {
			t.Fatal("Products are not sorted by ascending price")
		}
	}
}

func TestGetProduct(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, http.MethodGet, "/api/products/1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var product domain.Product
	decodeBody(t, rec, &product)
	if product.Title != "Smartphone X Pro" {
		t.Errorf("Unexpected product: %+v", product)
	}
}

func TestGetProductNotFound(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, http.MethodGet, "/api/products/999", "", nil)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown product, got %d", rec.Code)
	}
}

func TestListCategoriesAndBanners(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, http.MethodGet, "/api/categories", "", nil)
	var categories []domain.Category
	decodeBody(t, rec, &categories)
	if len(categories) != 6 {
		t.Errorf("Expected 6 categories, got %d", len(categories))
	}

	rec = h.do(t, http.MethodGet, "/api/banners", "", nil)
	var banners []domain.Banner
	decodeBody(t, rec, &banners)
	if len(banners) != 3 {
		t.Errorf("Expected 3 banners, got %d", len(banners))
	}
}
