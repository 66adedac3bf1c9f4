// Package memstore is an in-memory implementation of the gateway stores.
// It counts calls per operation and can be told to fail an operation,
// which lets tests exercise remote failure paths.
package memstore

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tallerpiolin/inventory-backend/internal/gateway"
	"github.com/tallerpiolin/inventory-backend/internal/models"
)

type Store struct {
	mu            sync.Mutex
	products      []models.Product
	categories    []models.Category
	brands        []models.Brand
	sales         []models.Sale
	notifications []models.Notification
	failures      map[string]error
	calls         map[string]int

	// Now stamps created rows. Tests may replace it.
	Now func() time.Time
}

func New() *Store {
	return &Store{
		failures: make(map[string]error),
		calls:    make(map[string]int),
		Now:      time.Now,
	}
}

// Gateway exposes the store through the gateway interfaces.
func (s *Store) Gateway() *gateway.Gateway {
	return &gateway.Gateway{
		Products:      &Products{s},
		Categories:    &Categories{s},
		Brands:        &Brands{s},
		Sales:         &Sales{s},
		Notifications: &Notifications{s},
	}
}

// Fail makes every call to op return err until Recover(op) is called.
// Ops are named "<table>.<operation>", e.g. "productos.decrement_stock".
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *Store) Recover(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, op)
}

// Calls returns how many times op was invoked.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// TotalCalls returns the number of calls across all operations.
func (s *Store) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// enter records a call and returns the injected failure, if any. Callers hold s.mu.
func (s *Store) enter(ctx context.Context, op string) error {
	s.calls[op]++
	if err := ctx.Err(); err != nil {
		return &models.RemoteError{Op: op, Message: err.Error(), Err: err}
	}
	return s.failures[op]
}

// Seed helpers insert rows directly, bypassing call accounting.

func (s *Store) SeedProduct(p models.Product) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.Now()
	}
	s.products = append(s.products, p)
	return p
}

func (s *Store) SeedCategory(c models.Category) models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.categories = append(s.categories, c)
	return c
}

func (s *Store) SeedNotification(n models.Notification) models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.Now()
	}
	s.notifications = append(s.notifications, n)
	return n
}

// AllProducts returns every product including inactive ones.
func (s *Store) AllProducts() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.products)
}

func (s *Store) AllCategories() []models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.categories)
}

func (s *Store) AllBrands() []models.Brand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.brands)
}

func (s *Store) AllSales() []models.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.sales)
}

func (s *Store) AllNotifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.notifications)
}

func (s *Store) productIndex(id uuid.UUID) int {
	return slices.IndexFunc(s.products, func(p models.Product) bool { return p.ID == id })
}

// hydrate attaches category and brand like the gorm preloads do.
func (s *Store) hydrate(p models.Product) models.Product {
	p.Category, p.Brand = nil, nil
	if p.CategoryID != nil {
		if i := slices.IndexFunc(s.categories, func(c models.Category) bool { return c.ID == *p.CategoryID }); i >= 0 {
			c := s.categories[i]
			p.Category = &c
		}
	}
	if p.BrandID != nil {
		if i := slices.IndexFunc(s.brands, func(b models.Brand) bool { return b.ID == *p.BrandID }); i >= 0 {
			b := s.brands[i]
			p.Brand = &b
		}
	}
	return p
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

type Products struct{ s *Store }

func (r *Products) List(ctx context.Context) ([]models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "productos.list"); err != nil {
		return nil, err
	}
	return r.s.active(func(models.Product) bool { return true }), nil
}

func (r *Products) Search(ctx context.Context, term string) ([]models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "productos.search"); err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	needle := strings.ToLower(term)
	return r.s.active(func(p models.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) ||
			p.BarcodeValue() == term
	}), nil
}

func (s *Store) active(match func(models.Product) bool) []models.Product {
	out := []models.Product{}
	for _, p := range s.products {
		if p.Active && match(p) {
			out = append(out, s.hydrate(p))
		}
	}
	slices.SortStableFunc(out, func(a, b models.Product) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (r *Products) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "productos.get"); err != nil {
		return nil, err
	}
	i := r.s.productIndex(id)
	if i < 0 {
		return nil, &models.NotFoundError{Entity: "product", ID: id.String()}
	}
	p := r.s.hydrate(r.s.products[i])
	return &p, nil
}

func (r *Products) FindByBarcode(ctx context.Context, code string) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "productos.find_by_barcode"); err != nil {
		return nil, err
	}
	for _, p := range r.s.products {
		if p.Active && p.BarcodeValue() == code {
			p = r.s.hydrate(p)
			return &p, nil
		}
	}
	return nil, &models.NotFoundError{Entity: "product", ID: code}
}

func (r *Products) FindByName(ctx context.Context, name string) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "productos.find_by_name"); err != nil {
		return nil, err
	}
	for _, p := range r.s.products {
		if p.Active && sameName(p.Name, name) {
			p = r.s.hydrate(p)
			return &p, nil
		}
	}
	return nil, &models.NotFoundError{Entity: "product", ID: name}
}

func (r *Products) Create(ctx context.Context, p *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "productos.create"); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.s.Now()
	}
	stored := *p
	stored.Category, stored.Brand = nil, nil
	r.s.products = append(r.s.products, stored)
	*p = r.s.hydrate(stored)
	return nil
}

func (r *Products) Update(ctx context.Context, id uuid.UUID, u models.ProductUpdate) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "productos.update"); err != nil {
		return nil, err
	}
	return r.s.updateProduct(id, u)
}

func (r *Products) SoftDelete(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "productos.soft_delete"); err != nil {
		return nil, err
	}
	inactive := false
	return r.s.updateProduct(id, models.ProductUpdate{Active: &inactive})
}

func (s *Store) updateProduct(id uuid.UUID, u models.ProductUpdate) (*models.Product, error) {
	i := s.productIndex(id)
	if i < 0 {
		return nil, &models.NotFoundError{Entity: "product", ID: id.String()}
	}
	u.Apply(&s.products[i])
	p := s.hydrate(s.products[i])
	return &p, nil
}

func (r *Products) SoftDeleteAll(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "productos.soft_delete_all"); err != nil {
		return 0, err
	}
	var n int64
	for i := range r.s.products {
		if r.s.products[i].Active {
			r.s.products[i].Active = false
			n++
		}
	}
	return n, nil
}

func (r *Products) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "productos.decrement_stock"); err != nil {
		return nil, err
	}
	i := r.s.productIndex(id)
	if i < 0 || !r.s.products[i].Active {
		return nil, &models.NotFoundError{Entity: "product", ID: id.String()}
	}
	if r.s.products[i].Stock < qty {
		return nil, &models.InsufficientStockError{Available: r.s.products[i].Stock, Requested: qty}
	}
	r.s.products[i].Stock -= qty
	p := r.s.hydrate(r.s.products[i])
	return &p, nil
}

type Categories struct{ s *Store }

func (r *Categories) List(ctx context.Context) ([]models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "tipos.list"); err != nil {
		return nil, err
	}
	out := slices.Clone(r.s.categories)
	slices.SortStableFunc(out, func(a, b models.Category) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *Categories) FindByName(ctx context.Context, name string) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "tipos.find_by_name"); err != nil {
		return nil, err
	}
	for _, c := range r.s.categories {
		if sameName(c.Name, name) {
			return &c, nil
		}
	}
	return nil, &models.NotFoundError{Entity: "category", ID: name}
}

func (r *Categories) Create(ctx context.Context, c *models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "tipos.create"); err != nil {
		return err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = r.s.Now()
	r.s.categories = append(r.s.categories, *c)
	return nil
}

type Brands struct{ s *Store }

func (r *Brands) List(ctx context.Context) ([]models.Brand, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "marcas.list"); err != nil {
		return nil, err
	}
	out := []models.Brand{}
	for _, b := range r.s.brands {
		if b.Active {
			out = append(out, b)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Brand) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *Brands) FindByName(ctx context.Context, name string) (*models.Brand, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "marcas.find_by_name"); err != nil {
		return nil, err
	}
	for _, b := range r.s.brands {
		if sameName(b.Name, name) {
			return &b, nil
		}
	}
	return nil, &models.NotFoundError{Entity: "brand", ID: name}
}

func (r *Brands) Create(ctx context.Context, b *models.Brand) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "marcas.create"); err != nil {
		return err
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = r.s.Now()
	r.s.brands = append(r.s.brands, *b)
	return nil
}

type Sales struct{ s *Store }

func (r *Sales) List(ctx context.Context, filter models.SaleFilter) ([]models.Sale, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "ventas.list"); err != nil {
		return nil, 0, err
	}
	out := []models.Sale{}
	for i := len(r.s.sales) - 1; i >= 0; i-- {
		sale := r.s.sales[i]
		if filter.From != nil && sale.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && sale.Date.After(*filter.To) {
			continue
		}
		out = append(out, sale)
	}
	slices.SortStableFunc(out, func(a, b models.Sale) int { return b.Date.Compare(a.Date) })

	total := int64(len(out))
	if filter.Offset > 0 {
		out = out[min(filter.Offset, len(out)):]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (r *Sales) Create(ctx context.Context, sale *models.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "ventas.create"); err != nil {
		return err
	}
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	if sale.Date.IsZero() {
		sale.Date = r.s.Now()
	}
	r.s.sales = append(r.s.sales, *sale)
	return nil
}

func (r *Sales) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "ventas.delete"); err != nil {
		return err
	}
	i := slices.IndexFunc(r.s.sales, func(s models.Sale) bool { return s.ID == id })
	if i < 0 {
		return &models.NotFoundError{Entity: "sale", ID: id.String()}
	}
	r.s.sales = slices.Delete(r.s.sales, i, i+1)
	return nil
}

func (r *Sales) DeleteAll(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "ventas.delete_all"); err != nil {
		return 0, err
	}
	n := int64(len(r.s.sales))
	r.s.sales = nil
	return n, nil
}

type Notifications struct{ s *Store }

func (r *Notifications) List(ctx context.Context, limit int) ([]models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "notificaciones.list"); err != nil {
		return nil, err
	}
	out := slices.Clone(r.s.notifications)
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b models.Notification) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Notifications) Create(ctx context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "notificaciones.create"); err != nil {
		return err
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.s.Now()
	}
	r.s.notifications = append(r.s.notifications, *n)
	return nil
}

func (r *Notifications) MarkRead(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "notificaciones.mark_read"); err != nil {
		return nil, err
	}
	i := slices.IndexFunc(r.s.notifications, func(n models.Notification) bool { return n.ID == id })
	if i < 0 {
		return nil, &models.NotFoundError{Entity: "notification", ID: id.String()}
	}
	r.s.notifications[i].Read = true
	n := r.s.notifications[i]
	return &n, nil
}

func (r *Notifications) MarkAllRead(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "notificaciones.mark_all_read"); err != nil {
		return 0, err
	}
	var count int64
	for i := range r.s.notifications {
		if !r.s.notifications[i].Read {
			r.s.notifications[i].Read = true
			count++
		}
	}
	return count, nil
}

func (r *Notifications) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, "notificaciones.delete"); err != nil {
		return err
	}
	i := slices.IndexFunc(r.s.notifications, func(n models.Notification) bool { return n.ID == id })
	if i < 0 {
		return &models.NotFoundError{Entity: "notification", ID: id.String()}
	}
	r.s.notifications = slices.Delete(r.s.notifications, i, i+1)
	return nil
}

func (r *Notifications) DeleteRead(ctx context.Context) (int64, error) {
	return r.deleteFunc(ctx, "notificaciones.delete_read", func(n models.Notification) bool { return n.Read })
}

func (r *Notifications) DeleteAll(ctx context.Context) (int64, error) {
	return r.deleteFunc(ctx, "notificaciones.delete_all", func(models.Notification) bool { return true })
}

func (r *Notifications) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	return r.deleteFunc(ctx, "notificaciones.delete_before", func(n models.Notification) bool { return n.CreatedAt.Before(t) })
}

func (r *Notifications) deleteFunc(ctx context.Context, op string, match func(models.Notification) bool) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(ctx, op); err != nil {
		return 0, err
	}
	before := len(r.s.notifications)
	r.s.notifications = slices.DeleteFunc(r.s.notifications, match)
	return int64(before - len(r.s.notifications)), nil
}
