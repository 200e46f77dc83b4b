package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/excommerce-backend/internal/catalog"
	"github.com/angelmondragon/excommerce-backend/internal/identity"
	pkgerrors "github.com/angelmondragon/excommerce-backend/pkg/errors"
	"github.com/angelmondragon/excommerce-backend/pkg/metrics"
)

// Mutation labels reported to cart_mutations_total.
const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpRemove = "remove"
	OpClear  = "clear"
	OpDrain  = "checkout"
)

type itemResolver interface {
	SellableItem(ctx context.Context, itemCode string) (*catalog.SellableItem, error)
}

// Cart is the caller-facing view of a stored cart.
type Cart struct {
	Items      []LineItem `json:"cart_items"`
	TotalItems int        `json:"total_items"`
}

// Result pairs a cart with a human readable outcome.
type Result struct {
	Cart    *Cart  `json:"cart"`
	Message string `json:"message"`
}

// ClearError reports that checkout work succeeded but the cart could not be emptied.
type ClearError struct {
	Err error
}

func (e *ClearError) Error() string {
	return fmt.Sprintf("clear cart: %v", e.Err)
}

func (e *ClearError) Unwrap() error {
	return e.Err
}

// Service exposes cart operations for one identity at a time.
type Service interface {
	Get(ctx context.Context, id identity.Identity) (*Cart, error)
	Add(ctx context.Context, id identity.Identity, itemCode string, qty int) (*Result, error)
	Update(ctx context.Context, id identity.Identity, itemCode string, qty int) (*Result, error)
	Remove(ctx context.Context, id identity.Identity, itemCode string) (*Result, error)
	Clear(ctx context.Context, id identity.Identity) (*Result, error)
	// Drain hands the locked cart contents to fn and empties the cart once fn
	// succeeds. An empty cart fails with EMPTY_CART before fn runs.
	Drain(ctx context.Context, id identity.Identity, fn func(items []LineItem) error) error
}

type service struct {
	store   Store
	locker  Locker
	items   itemResolver
	metrics *metrics.StorefrontMetrics
}

// NewService builds a cart service backed by the provided stack.
func NewService(store Store, locker Locker, items itemResolver, m *metrics.StorefrontMetrics) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if locker == nil {
		return nil, fmt.Errorf("cart locker required")
	}
	if items == nil {
		return nil, fmt.Errorf("item resolver required")
	}
	return &service{store: store, locker: locker, items: items, metrics: m}, nil
}

func (s *service) Get(ctx context.Context, id identity.Identity) (*Cart, error) {
	items, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return newCart(items), nil
}

func (s *service) Add(ctx context.Context, id identity.Identity, itemCode string, qty int) (*Result, error) {
	itemCode = strings.TrimSpace(itemCode)
	if itemCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item_code is required")
	}
	if qty < 1 {
		qty = 1
	}

	item, err := s.items.SellableItem(ctx, itemCode)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("Item %s not found or not available for sale", itemCode))
	}

	var result *Cart
	err = s.mutate(ctx, id, OpAdd, func(lines []LineItem) ([]LineItem, error) {
		merged := false
		for i := range lines {
			if lines[i].ItemCode != item.ItemCode {
				continue
			}
			lines[i].Qty += qty
			lines[i].Amount = lineAmount(lines[i].Qty, lines[i].Rate)
			merged = true
			break
		}
		if !merged {
			lines = append(lines, LineItem{
				ItemCode:  item.ItemCode,
				ItemName:  item.ItemName,
				ItemGroup: item.ItemGroup,
				Qty:       qty,
				Rate:      item.Rate,
				Amount:    lineAmount(qty, item.Rate),
			})
		}
		result = newCart(lines)
		return lines, nil
	})
	if err != nil {
		return nil, err
	}
	return &Result{Cart: result, Message: fmt.Sprintf("%s added to cart", item.ItemName)}, nil
}

func (s *service) Update(ctx context.Context, id identity.Identity, itemCode string, qty int) (*Result, error) {
	itemCode = strings.TrimSpace(itemCode)
	if qty < 0 {
		qty = 0
	}

	var result *Cart
	err := s.mutate(ctx, id, OpUpdate, func(lines []LineItem) ([]LineItem, error) {
		idx := indexOf(lines, itemCode)
		if idx < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Item not found in cart")
		}
		if qty == 0 {
			lines = append(lines[:idx], lines[idx+1:]...)
		} else {
			lines[idx].Qty = qty
			lines[idx].Amount = lineAmount(qty, lines[idx].Rate)
		}
		result = newCart(lines)
		return lines, nil
	})
	if err != nil {
		return nil, err
	}
	return &Result{Cart: result, Message: "Cart updated"}, nil
}

func (s *service) Remove(ctx context.Context, id identity.Identity, itemCode string) (*Result, error) {
	itemCode = strings.TrimSpace(itemCode)

	var result *Cart
	err := s.mutate(ctx, id, OpRemove, func(lines []LineItem) ([]LineItem, error) {
		idx := indexOf(lines, itemCode)
		if idx < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Item not found in cart")
		}
		lines = append(lines[:idx], lines[idx+1:]...)
		result = newCart(lines)
		return lines, nil
	})
	if err != nil {
		return nil, err
	}
	return &Result{Cart: result, Message: "Item removed from cart"}, nil
}

func (s *service) Clear(ctx context.Context, id identity.Identity) (*Result, error) {
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = unlock(context.WithoutCancel(ctx)) }()

	if err := s.store.Delete(ctx, id); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	s.metrics.IncCartMutation(OpClear)
	return &Result{Cart: newCart(nil), Message: "Cart cleared"}, nil
}

func (s *service) Drain(ctx context.Context, id identity.Identity, fn func(items []LineItem) error) error {
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer func() { _ = unlock(context.WithoutCancel(ctx)) }()

	items, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeEmptyCart, "Cart is empty")
	}

	if err := fn(items); err != nil {
		return err
	}

	s.metrics.IncCartMutation(OpDrain)
	if err := s.store.Delete(context.WithoutCancel(ctx), id); err != nil {
		return &ClearError{Err: err}
	}
	return nil
}

// mutate runs one locked read-modify-write cycle and persists the whole cart.
func (s *service) mutate(ctx context.Context, id identity.Identity, op string, apply func([]LineItem) ([]LineItem, error)) error {
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer func() { _ = unlock(context.WithoutCancel(ctx)) }()

	lines, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	lines, err = apply(lines)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, id, lines); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	s.metrics.IncCartMutation(op)
	return nil
}

func (s *service) load(ctx context.Context, id identity.Identity) ([]LineItem, error) {
	items, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return items, nil
}

// IsClearError reports whether err only signals a failed post-checkout clear.
func IsClearError(err error) bool {
	var clearErr *ClearError
	return errors.As(err, &clearErr)
}

func newCart(items []LineItem) *Cart {
	if items == nil {
		items = []LineItem{}
	}
	return &Cart{Items: items, TotalItems: len(items)}
}

func indexOf(items []LineItem, itemCode string) int {
	for i, item := range items {
		if item.ItemCode == itemCode {
			return i
		}
	}
	return -1
}

func lineAmount(qty int, rate decimal.Decimal) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(int64(qty)))
}
