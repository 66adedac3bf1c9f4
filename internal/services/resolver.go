// internal/services/resolver.go
package services

import (
	"context"
	"strings"

	"github.com/tallerpiolin/inventory-backend/internal/gateway"
	"github.com/tallerpiolin/inventory-backend/internal/models"
	"github.com/tallerpiolin/inventory-backend/internal/utils"
)

type ResolveKind string

const (
	ResolveBarcode ResolveKind = "barcode"
	ResolveText    ResolveKind = "text"
	ResolveAll     ResolveKind = "all"
)

// Catalog is the cached active catalog.
type Catalog interface {
	List() []models.Product
}

type Resolution struct {
	Kind    ResolveKind      `json:"kind"`
	Matches []models.Product `json:"matches"`
	Exact   bool             `json:"exact"`
}

// Resolver turns the shared search box input, typed or scanned, into products.
type Resolver struct {
	products gateway.ProductStore
	catalog  Catalog
}

func NewResolver(products gateway.ProductStore, catalog Catalog) *Resolver {
	return &Resolver{products: products, catalog: catalog}
}

// Resolve treats 8 to 18 digits as a barcode and tries an exact lookup
// before falling back to text search. An empty query lists the catalog.
func (r *Resolver) Resolve(ctx context.Context, query string) (*Resolution, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &Resolution{Kind: ResolveAll, Matches: r.catalog.List()}, nil
	}

	kind := ResolveText
	if utils.IsBarcode(query) {
		kind = ResolveBarcode
		p, err := r.products.FindByBarcode(ctx, query)
		if err == nil {
			return &Resolution{Kind: kind, Matches: []models.Product{*p}, Exact: true}, nil
		}
		if !models.IsNotFound(err) {
			return nil, err
		}
	}

	matches, err := r.products.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return &Resolution{Kind: kind, Matches: matches}, nil
}
