package catalog

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/excommerce-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/excommerce-backend/pkg/errors"
	"github.com/angelmondragon/excommerce-backend/pkg/pagination"
	"github.com/angelmondragon/excommerce-backend/pkg/types"
)

// MaxTermLength bounds search terms and item codes accepted from callers.
const MaxTermLength = 64

type itemReader interface {
	ListListed(ctx context.Context, filter ItemFilter) ([]models.Item, int64, error)
	FindSellable(ctx context.Context, itemCode string) (*models.Item, error)
	ListVariants(ctx context.Context, templateCodes []string) ([]models.Item, error)
	LatestSellingPrices(ctx context.Context, itemCodes []string) (map[string]decimal.Decimal, error)
}

// Service exposes read-only catalog queries.
type Service interface {
	ListProducts(ctx context.Context, params ListParams) (*ProductList, error)
	GetProduct(ctx context.Context, itemCode string) (*Product, error)
	SellableItem(ctx context.Context, itemCode string) (*SellableItem, error)
}

type service struct {
	repo itemReader
}

// NewService builds a catalog service backed by the repository.
func NewService(repo itemReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListProducts(ctx context.Context, params ListParams) (*ProductList, error) {
	page := pagination.Params{Limit: params.Limit, Offset: params.Offset}.Normalize()
	filter := ItemFilter{
		Search:   truncate(params.Search),
		Category: strings.TrimSpace(params.Category),
		Limit:    page.Limit,
		Offset:   page.Offset,
	}

	items, total, err := s.repo.ListListed(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	var templateCodes []string
	codes := make([]string, 0, len(items))
	for _, item := range items {
		codes = append(codes, item.ItemCode)
		if item.HasVariants {
			templateCodes = append(templateCodes, item.ItemCode)
		}
	}

	variants, err := s.repo.ListVariants(ctx, templateCodes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list variants")
	}
	byTemplate := map[string][]models.Item{}
	for _, v := range variants {
		if v.VariantOf == nil {
			continue
		}
		byTemplate[*v.VariantOf] = append(byTemplate[*v.VariantOf], v)
		codes = append(codes, v.ItemCode)
	}

	prices, err := s.repo.LatestSellingPrices(ctx, codes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load prices")
	}

	products := make([]Product, 0, len(items))
	for _, item := range items {
		products = append(products, buildProduct(item, byTemplate[item.ItemCode], prices, false))
	}

	return &ProductList{
		Products:   products,
		Pagination: pagination.NewInfo(page, total),
	}, nil
}

func (s *service) GetProduct(ctx context.Context, itemCode string) (*Product, error) {
	itemCode, ok := cleanItemCode(itemCode)
	if itemCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item code is required")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}

	item, err := s.repo.FindSellable(ctx, itemCode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}

	codes := []string{item.ItemCode}
	var variants []models.Item
	if item.HasVariants {
		variants, err = s.repo.ListVariants(ctx, []string{item.ItemCode})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list variants")
		}
		for _, v := range variants {
			codes = append(codes, v.ItemCode)
		}
	}

	prices, err := s.repo.LatestSellingPrices(ctx, codes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load prices")
	}

	product := buildProduct(*item, variants, prices, true)
	return &product, nil
}

func (s *service) SellableItem(ctx context.Context, itemCode string) (*SellableItem, error) {
	itemCode, ok := cleanItemCode(itemCode)
	if itemCode == "" || !ok {
		return nil, nil
	}
	item, err := s.repo.FindSellable(ctx, itemCode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	if item == nil {
		return nil, nil
	}
	prices, err := s.repo.LatestSellingPrices(ctx, []string{item.ItemCode})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price")
	}
	return &SellableItem{
		ItemCode:  item.ItemCode,
		ItemName:  item.ItemName,
		ItemGroup: item.ItemGroup,
		StockUOM:  item.StockUOM,
		Rate:      prices[item.ItemCode],
	}, nil
}

func buildProduct(item models.Item, variants []models.Item, prices map[string]decimal.Decimal, withVariants bool) Product {
	p := Product{
		ItemCode:    item.ItemCode,
		ItemName:    item.ItemName,
		Description: item.Description,
		Image:       item.Image,
		Category:    item.ItemGroup,
		Brand:       item.Brand,
		StockUOM:    item.StockUOM,
		IsTemplate:  item.HasVariants,
		InStock:     true,
	}

	if !item.HasVariants {
		p.Price, p.FormattedPrice = sellingPrice(prices, item.ItemCode)
		return p
	}

	p.VariantCount = len(variants)
	p.PriceRange = priceRange(variants, prices)
	if p.Image == nil || *p.Image == "" {
		for _, v := range variants {
			if v.Image != nil && *v.Image != "" {
				p.Image = v.Image
				break
			}
		}
	}
	if withVariants {
		p.Variants = make([]Variant, 0, len(variants))
		for _, v := range variants {
			price, formatted := sellingPrice(prices, v.ItemCode)
			p.Variants = append(p.Variants, Variant{
				ItemCode:       v.ItemCode,
				ItemName:       v.ItemName,
				Image:          v.Image,
				Price:          price,
				FormattedPrice: formatted,
			})
		}
	}
	return p
}

// sellingPrice is null for items without a positive selling rate.
func sellingPrice(prices map[string]decimal.Decimal, itemCode string) (*decimal.Decimal, *string) {
	price, ok := prices[itemCode]
	if !ok || !price.IsPositive() {
		return nil, nil
	}
	return &price, types.FormattedPrice(price)
}

func priceRange(variants []models.Item, prices map[string]decimal.Decimal) *PriceRange {
	var (
		lo, hi decimal.Decimal
		found  bool
	)
	for _, v := range variants {
		price, ok := prices[v.ItemCode]
		if !ok || !price.IsPositive() {
			continue
		}
		if !found {
			lo, hi, found = price, price, true
			continue
		}
		lo = decimal.Min(lo, price)
		hi = decimal.Max(hi, price)
	}
	if !found {
		return nil
	}
	return &PriceRange{
		Min:          lo,
		Max:          hi,
		FormattedMin: types.FormatMoney(lo),
		FormattedMax: types.FormatMoney(hi),
	}
}

// cleanItemCode trims value and reports whether it fits MaxTermLength. Codes
// are never shortened, so an over-long code cannot match a different item.
func cleanItemCode(value string) (string, bool) {
	value = strings.TrimSpace(value)
	return value, utf8.RuneCountInString(value) <= MaxTermLength
}

// truncate shortens search terms to MaxTermLength runes.
func truncate(value string) string {
	value = strings.TrimSpace(value)
	if runes := []rune(value); len(runes) > MaxTermLength {
		value = string(runes[:MaxTermLength])
	}
	return value
}
