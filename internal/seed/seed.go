package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/excommerce-backend/pkg/config"
	"github.com/angelmondragon/excommerce-backend/pkg/db/models"
	"github.com/angelmondragon/excommerce-backend/pkg/enums"
	"github.com/angelmondragon/excommerce-backend/pkg/security"
)

// File is the on-disk layout of a seed document.
type File struct {
	Items []Item `json:"items"`
	Users []User `json:"users"`
}

// Item is one catalog entry. Price is written to the configured selling price list.
type Item struct {
	ItemCode    string           `json:"item_code"`
	ItemName    string           `json:"item_name"`
	ItemGroup   string           `json:"item_group"`
	Brand       string           `json:"brand"`
	Description string           `json:"description"`
	Image       string           `json:"image"`
	StockUOM    string           `json:"stock_uom"`
	Disabled    bool             `json:"disabled"`
	NotForSale  bool             `json:"not_for_sale"`
	HasVariants bool             `json:"has_variants"`
	VariantOf   string           `json:"variant_of"`
	Price       *decimal.Decimal `json:"price"`
}

// User is a login account. Password is plain text and hashed before insert.
type User struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// Summary counts the rows written by Apply.
type Summary struct {
	Items  int
	Prices int
	Users  int
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Options controls how seed rows are written.
type Options struct {
	PriceList string
	Password  config.PasswordConfig
}

// Load decodes a seed document and validates it.
func Load(r io.Reader) (*File, error) {
	var file File
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Validate reports every problem in the document at once.
func (f *File) Validate() error {
	var errs error
	codes := make(map[string]bool, len(f.Items))
	templates := map[string]bool{}
	for i, item := range f.Items {
		code := strings.TrimSpace(item.ItemCode)
		switch {
		case code == "":
			errs = multierr.Append(errs, fmt.Errorf("items[%d]: item_code is required", i))
			continue
		case codes[code]:
			errs = multierr.Append(errs, fmt.Errorf("items[%d]: duplicate item_code %q", i, code))
		}
		codes[code] = true
		if item.HasVariants {
			templates[code] = true
		}
		if strings.TrimSpace(item.ItemName) == "" {
			errs = multierr.Append(errs, fmt.Errorf("items[%d]: item_name is required", i))
		}
		if strings.TrimSpace(item.ItemGroup) == "" {
			errs = multierr.Append(errs, fmt.Errorf("items[%d]: item_group is required", i))
		}
		if item.Price != nil && item.Price.IsNegative() {
			errs = multierr.Append(errs, fmt.Errorf("items[%d]: price must not be negative", i))
		}
	}
	for i, item := range f.Items {
		parent := strings.TrimSpace(item.VariantOf)
		if parent != "" && !templates[parent] {
			errs = multierr.Append(errs, fmt.Errorf("items[%d]: variant_of %q is not a template item", i, parent))
		}
	}

	emails := make(map[string]bool, len(f.Users))
	for i, user := range f.Users {
		email := strings.ToLower(strings.TrimSpace(user.Email))
		if email == "" {
			errs = multierr.Append(errs, fmt.Errorf("users[%d]: email is required", i))
		} else if emails[email] {
			errs = multierr.Append(errs, fmt.Errorf("users[%d]: duplicate email %q", i, email))
		}
		emails[email] = true
		if user.Password == "" {
			errs = multierr.Append(errs, fmt.Errorf("users[%d]: password is required", i))
		}
		if _, err := enums.ParseUserRole(user.Role); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("users[%d]: %w", i, err))
		}
	}
	return errs
}

// Apply upserts the document in one transaction. Items are keyed by item code,
// users by email; each item's prices on the target list are replaced.
func Apply(ctx context.Context, runner txRunner, file *File, opts Options) (*Summary, error) {
	if runner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if file == nil {
		return nil, fmt.Errorf("seed file required")
	}
	priceList := strings.TrimSpace(opts.PriceList)
	if priceList == "" {
		return nil, fmt.Errorf("price list required")
	}

	users := make([]models.User, 0, len(file.Users))
	for _, u := range file.Users {
		hash, err := security.HashPassword(u.Password, opts.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", u.Email, err)
		}
		users = append(users, models.User{
			Email:        strings.ToLower(strings.TrimSpace(u.Email)),
			PasswordHash: hash,
			FullName:     strings.TrimSpace(u.FullName),
			Role:         enums.UserRole(u.Role),
			IsActive:     true,
		})
	}

	summary := &Summary{}
	err := runner.WithTx(ctx, func(tx *gorm.DB) error {
		tx = tx.WithContext(ctx)
		for _, item := range file.Items {
			row := item.model()
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "item_code"}},
				UpdateAll: true,
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("upsert item %s: %w", row.ItemCode, err)
			}
			summary.Items++

			if item.Price == nil {
				continue
			}
			if err := tx.Where("item_code = ? AND price_list = ?", row.ItemCode, priceList).
				Delete(&models.ItemPrice{}).Error; err != nil {
				return fmt.Errorf("reset prices for %s: %w", row.ItemCode, err)
			}
			price := models.ItemPrice{
				ItemCode:      row.ItemCode,
				PriceList:     priceList,
				PriceListRate: *item.Price,
				Selling:       true,
			}
			if err := tx.Create(&price).Error; err != nil {
				return fmt.Errorf("insert price for %s: %w", row.ItemCode, err)
			}
			summary.Prices++
		}

		for i := range users {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "email"}},
				DoUpdates: clause.AssignmentColumns([]string{"password_hash", "full_name", "role", "is_active"}),
			}).Create(&users[i]).Error; err != nil {
				return fmt.Errorf("upsert user %s: %w", users[i].Email, err)
			}
			summary.Users++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (i Item) model() models.Item {
	uom := strings.TrimSpace(i.StockUOM)
	if uom == "" {
		uom = "Nos"
	}
	return models.Item{
		ItemCode:    strings.TrimSpace(i.ItemCode),
		ItemName:    strings.TrimSpace(i.ItemName),
		ItemGroup:   strings.TrimSpace(i.ItemGroup),
		Brand:       optional(i.Brand),
		Description: optional(i.Description),
		Image:       optional(i.Image),
		StockUOM:    uom,
		Disabled:    i.Disabled,
		IsSalesItem: !i.NotForSale,
		HasVariants: i.HasVariants,
		VariantOf:   optional(i.VariantOf),
	}
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
