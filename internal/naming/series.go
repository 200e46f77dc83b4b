package naming

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/excommerce-backend/pkg/db/models"
)

// Document name series used across the storefront.
const (
	SeriesCustomer   = "CUST-"
	SeriesContact    = "CONT-"
	SeriesAddress    = "ADDR-"
	SeriesSalesOrder = "SAL-ORD-.YYYY.-"
)

const counterDigits = 5

// Generator issues sequential document names.
type Generator interface {
	Next(ctx context.Context, tx *gorm.DB, series string) (string, error)
}

type generator struct {
	now func() time.Time
}

// NewGenerator returns a name generator backed by the name_series table.
func NewGenerator() Generator {
	return &generator{now: time.Now}
}

// Next expands series for the current date and appends the next counter for
// the resulting prefix. The counter increments inside tx so a rolled back
// transaction does not consume a number.
func (g *generator) Next(ctx context.Context, tx *gorm.DB, series string) (string, error) {
	if tx == nil {
		return "", fmt.Errorf("db is required")
	}
	prefix, err := Expand(series, g.now())
	if err != nil {
		return "", err
	}

	row := models.NameSeries{Prefix: prefix, Counter: 1}
	if err := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "prefix"}},
		DoUpdates: clause.Assignments(map[string]any{"counter": gorm.Expr("name_series.counter + 1")}),
	}).Create(&row).Error; err != nil {
		return "", fmt.Errorf("advance name series %q: %w", prefix, err)
	}

	var counter int64
	if err := tx.WithContext(ctx).
		Model(&models.NameSeries{}).
		Select("counter").
		Where("prefix = ?", prefix).
		Scan(&counter).Error; err != nil {
		return "", fmt.Errorf("read name series %q: %w", prefix, err)
	}

	return fmt.Sprintf("%s%0*d", prefix, counterDigits, counter), nil
}

// Expand resolves the date placeholders of a dotted series such as
// "EXC-ORD-.YYYY.-" into a concrete prefix.
func Expand(series string, at time.Time) (string, error) {
	series = strings.TrimSpace(series)
	if series == "" {
		return "", fmt.Errorf("series is required")
	}

	var b strings.Builder
	for _, part := range strings.Split(series, ".") {
		switch part {
		case "YYYY":
			b.WriteString(at.Format("2006"))
		case "YY":
			b.WriteString(at.Format("06"))
		case "MM":
			b.WriteString(at.Format("01"))
		case "DD":
			b.WriteString(at.Format("02"))
		case "#####", "####":
			// counter placeholder; the counter is always appended
		default:
			b.WriteString(part)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("series %q expands to an empty prefix", series)
	}
	return b.String(), nil
}
