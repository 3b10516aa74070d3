// Package memory is an in-process repository.Store used by tests and local
// demos. Transactions are serialized by a store-wide lock and applied by
// swapping in a working copy, so a failed transaction leaves no trace.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"stockledger/internal/apierror"
	"stockledger/internal/model"
	"stockledger/internal/repository"

	"github.com/google/uuid"
)

type dataset struct {
	owners       map[uuid.UUID]model.Owner
	products     map[uuid.UUID]model.Product
	sales        []model.Sale
	movements    []model.StockMovement
	priceChanges []model.PriceChange
}

func newDataset() *dataset {
	return &dataset{
		owners:   make(map[uuid.UUID]model.Owner),
		products: make(map[uuid.UUID]model.Product),
	}
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		owners:       make(map[uuid.UUID]model.Owner, len(d.owners)),
		products:     make(map[uuid.UUID]model.Product, len(d.products)),
		sales:        append([]model.Sale(nil), d.sales...),
		movements:    append([]model.StockMovement(nil), d.movements...),
		priceChanges: append([]model.PriceChange(nil), d.priceChanges...),
	}
	for k, v := range d.owners {
		c.owners[k] = v
	}
	for k, v := range d.products {
		c.products[k] = v
	}
	return c
}

// Store implements repository.Store.
type Store struct {
	mu   sync.Mutex
	data *dataset
	now  func() time.Time
}

func New() *Store {
	return &Store{data: newDataset(), now: time.Now}
}

// view is either the root store (each call takes the lock) or a running
// transaction (the lock is already held and tx is the working copy).
type view struct {
	s  *Store
	tx *dataset
}

func (s *Store) root() *view { return &view{s: s} }

func (v *view) do(fn func(d *dataset) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.data)
}

func (s *Store) Products() repository.ProductRepository { return s.root().Products() }
func (s *Store) Sales() repository.SaleRepository       { return s.root().Sales() }
func (s *Store) Audit() repository.AuditRepository      { return s.root().Audit() }
func (s *Store) Owners() repository.OwnerRepository     { return s.root().Owners() }

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.root().WithTx(ctx, fn)
}

func (v *view) Products() repository.ProductRepository { return productRepo{v} }
func (v *view) Sales() repository.SaleRepository       { return saleRepo{v} }
func (v *view) Audit() repository.AuditRepository      { return auditRepo{v} }
func (v *view) Owners() repository.OwnerRepository     { return ownerRepo{v} }

func (v *view) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if v.tx != nil {
		// Nested calls join the running transaction.
		return fn(v)
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", apierror.ErrPersistence, err)
	}
	work := v.s.data.clone()
	if err := fn(&view{s: v.s, tx: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", apierror.ErrPersistence, err)
	}
	v.s.data = work
	return nil
}

// ── products ─────────────────────────────────────────────────────────────────

type productRepo struct{ v *view }

func (r productRepo) Create(_ context.Context, p *model.Product) error {
	return r.v.do(func(d *dataset) error {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		now := r.v.s.now().UTC()
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = now
		}
		if _, exists := d.products[p.ID]; exists {
			return fmt.Errorf("%w: products_pkey", apierror.ErrDuplicate)
		}
		d.products[p.ID] = *p
		return nil
	})
}

func (r productRepo) FindByID(_ context.Context, ownerID, id uuid.UUID) (*model.Product, error) {
	var out *model.Product
	err := r.v.do(func(d *dataset) error {
		p, ok := d.products[id]
		if !ok || p.OwnerID != ownerID {
			return apierror.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

// FindByIDForUpdate needs no extra locking: transactions already hold the
// store-wide lock.
func (r productRepo) FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(ctx, ownerID, id)
}

func (r productRepo) List(_ context.Context, ownerID uuid.UUID) ([]model.Product, error) {
	var out []model.Product
	err := r.v.do(func(d *dataset) error {
		for _, p := range d.products {
			if p.OwnerID == ownerID {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, err
}

func (r productRepo) Update(_ context.Context, p *model.Product) error {
	return r.v.do(func(d *dataset) error {
		cur, ok := d.products[p.ID]
		if !ok || cur.OwnerID != p.OwnerID {
			return apierror.ErrNotFound
		}
		cur.Name = p.Name
		cur.Category = p.Category
		cur.CostPrice = p.CostPrice
		cur.SellingPrice = p.SellingPrice
		cur.UpdatedAt = p.UpdatedAt
		d.products[p.ID] = cur
		return nil
	})
}

func (r productRepo) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	return r.v.do(func(d *dataset) error {
		cur, ok := d.products[id]
		if !ok || cur.OwnerID != ownerID {
			return apierror.ErrNotFound
		}
		delete(d.products, id)
		return nil
	})
}

func (r productRepo) DecrementStock(_ context.Context, ownerID, id uuid.UUID, qty int) (bool, error) {
	applied := false
	err := r.v.do(func(d *dataset) error {
		cur, ok := d.products[id]
		if !ok || cur.OwnerID != ownerID || cur.StockUnits < qty {
			return nil
		}
		cur.StockUnits -= qty
		d.products[id] = cur
		applied = true
		return nil
	})
	return applied, err
}

func (r productRepo) AdjustStock(_ context.Context, ownerID, id uuid.UUID, delta int) (bool, error) {
	applied := false
	err := r.v.do(func(d *dataset) error {
		cur, ok := d.products[id]
		if !ok || cur.OwnerID != ownerID || cur.StockUnits+delta < 0 {
			return nil
		}
		cur.StockUnits += delta
		d.products[id] = cur
		applied = true
		return nil
	})
	return applied, err
}

// ── sales ────────────────────────────────────────────────────────────────────

type saleRepo struct{ v *view }

func (r saleRepo) Create(_ context.Context, s *model.Sale) error {
	return r.v.do(func(d *dataset) error {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = r.v.s.now().UTC()
		}
		d.sales = append(d.sales, *s)
		return nil
	})
}

func (r saleRepo) FindByID(_ context.Context, ownerID, id uuid.UUID) (*model.Sale, error) {
	var out *model.Sale
	err := r.v.do(func(d *dataset) error {
		for _, s := range d.sales {
			if s.ID == id && s.OwnerID == ownerID {
				s := s
				out = &s
				return nil
			}
		}
		return apierror.ErrNotFound
	})
	return out, err
}

func (r saleRepo) ListRecent(_ context.Context, ownerID uuid.UUID, limit int) ([]model.Sale, error) {
	var out []model.Sale
	err := r.v.do(func(d *dataset) error {
		for _, s := range d.sales {
			if s.OwnerID == ownerID {
				out = append(out, s)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit := clampLimit(limit, 50, 500); len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r saleRepo) ListBetween(_ context.Context, ownerID uuid.UUID, from, to time.Time) ([]model.Sale, error) {
	var out []model.Sale
	err := r.v.do(func(d *dataset) error {
		for _, s := range d.sales {
			if s.OwnerID != ownerID || s.CreatedAt.Before(from) || !s.CreatedAt.Before(to) {
				continue
			}
			if p, ok := d.products[s.ProductID]; ok && p.OwnerID == ownerID {
				s.ProductName = p.Name
			}
			out = append(out, s)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, err
}

func (r saleRepo) Watermark(_ context.Context, ownerID uuid.UUID, from, to time.Time) (repository.SaleWatermark, error) {
	var wm repository.SaleWatermark
	err := r.v.do(func(d *dataset) error {
		for _, s := range d.sales {
			if s.OwnerID != ownerID || s.CreatedAt.Before(from) || !s.CreatedAt.Before(to) {
				continue
			}
			wm.Count++
			if s.CreatedAt.After(wm.Latest) {
				wm.Latest = s.CreatedAt.UTC()
			}
		}
		return nil
	})
	return wm, err
}

// ── audit ────────────────────────────────────────────────────────────────────

type auditRepo struct{ v *view }

func (r auditRepo) CreateMovement(_ context.Context, m *model.StockMovement) error {
	return r.v.do(func(d *dataset) error {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = r.v.s.now().UTC()
		}
		d.movements = append(d.movements, *m)
		return nil
	})
}

func (r auditRepo) ListMovements(_ context.Context, ownerID, productID uuid.UUID, limit int) ([]model.StockMovement, error) {
	var out []model.StockMovement
	err := r.v.do(func(d *dataset) error {
		for i := len(d.movements) - 1; i >= 0; i-- {
			m := d.movements[i]
			if m.OwnerID == ownerID && m.ProductID == productID {
				out = append(out, m)
			}
		}
		return nil
	})
	if limit := clampLimit(limit, 50, 200); len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r auditRepo) CreatePriceChange(_ context.Context, pc *model.PriceChange) error {
	return r.v.do(func(d *dataset) error {
		if pc.ID == uuid.Nil {
			pc.ID = uuid.New()
		}
		if pc.CreatedAt.IsZero() {
			pc.CreatedAt = r.v.s.now().UTC()
		}
		d.priceChanges = append(d.priceChanges, *pc)
		return nil
	})
}

func (r auditRepo) ListPriceChanges(_ context.Context, ownerID, productID uuid.UUID, limit int) ([]model.PriceChange, error) {
	var out []model.PriceChange
	err := r.v.do(func(d *dataset) error {
		for i := len(d.priceChanges) - 1; i >= 0; i-- {
			pc := d.priceChanges[i]
			if pc.OwnerID == ownerID && pc.ProductID == productID {
				out = append(out, pc)
			}
		}
		return nil
	})
	if limit := clampLimit(limit, 50, 200); len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

// ── owners ───────────────────────────────────────────────────────────────────

type ownerRepo struct{ v *view }

func (r ownerRepo) Create(_ context.Context, o *model.Owner) error {
	return r.v.do(func(d *dataset) error {
		email := strings.ToLower(strings.TrimSpace(o.Email))
		for _, existing := range d.owners {
			if existing.Email == email {
				return fmt.Errorf("%w: owners_email_key", apierror.ErrDuplicate)
			}
		}
		if o.ID == uuid.Nil {
			o.ID = uuid.New()
		}
		o.Email = email
		now := r.v.s.now().UTC()
		o.CreatedAt, o.UpdatedAt = now, now
		d.owners[o.ID] = *o
		return nil
	})
}

func (r ownerRepo) FindByEmail(_ context.Context, email string) (*model.Owner, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var out *model.Owner
	err := r.v.do(func(d *dataset) error {
		for _, o := range d.owners {
			if o.Email == email {
				o := o
				out = &o
				return nil
			}
		}
		return apierror.ErrNotFound
	})
	return out, err
}

func (r ownerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Owner, error) {
	var out *model.Owner
	err := r.v.do(func(d *dataset) error {
		o, ok := d.owners[id]
		if !ok {
			return apierror.ErrNotFound
		}
		out = &o
		return nil
	})
	return out, err
}

func clampLimit(limit, def, max int) int {
	if limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

var _ repository.Store = (*Store)(nil)
var _ repository.Store = (*view)(nil)
