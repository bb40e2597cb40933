package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog CSV files and inserts or updates products by name.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
	validate    *validator.Validate
	logger      *zap.Logger
}

func NewCSVImporter(r io.Reader, repo ProductWriter, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
		validate:    newValidator(),
		logger:      logging.OrNop(logger),
	}
}

type csvRow struct {
	Line        int    `validate:"-"`
	Name        string `validate:"required,max=200"`
	Price       string `validate:"required,price"`
	ImageURL    string `validate:"omitempty,url|startswith=/"`
	Description string `validate:"max=2000"`
	Stock       string `validate:"omitempty,number"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("price", validatePrice)
	return v
}

// validatePrice accepts non-negative decimals with at most two fraction
// digits.
func validatePrice(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return !d.IsNegative() && d.Exponent() >= -2
}

// Run parses CSV rows and upserts one product per row. The first invalid row
// stops the import.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return 0, errors.New("missing name column")
	}
	if _, ok := index["price"]; !ok {
		return 0, errors.New("missing price column")
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		row := parseRow(record, index)
		if row == nil {
			continue
		}
		row.Line = line
		if err := i.save(ctx, row); err != nil {
			return imported, err
		}
		imported++
	}

	i.logger.Info("catalog import finished", zap.Int("imported", imported))
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if err := i.validate.Struct(row); err != nil {
		return fmt.Errorf("invalid product row on line %d: %w", row.Line, err)
	}

	price, _ := decimal.NewFromString(row.Price)
	stock := 0
	if row.Stock != "" {
		n, err := strconv.Atoi(row.Stock)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid stock on line %d: %q", row.Line, row.Stock)
		}
		stock = n
	}

	p := domain.Product{
		Name:          row.Name,
		Price:         price,
		ImageURL:      row.ImageURL,
		Description:   row.Description,
		StockQuantity: stock,
	}
	if _, err := i.productRepo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", row.Name, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	row := &csvRow{
		Name:        pick(record, index, "name"),
		Price:       pick(record, index, "price"),
		ImageURL:    pick(record, index, "image_url"),
		Description: pick(record, index, "description"),
		Stock:       pick(record, index, "stock_quantity"),
	}
	if *row == (csvRow{}) {
		return nil
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
