package bulkimport

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	persondomain "github.com/taoerp/taoerp/internal/person/domain"
	productdomain "github.com/taoerp/taoerp/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrUnknownCollection = errors.New("unknown_collection")
	ErrMissingHeader     = errors.New("missing_header")
)

// RowError records why one CSV line was skipped. Line numbers are 1-based and
// count the header.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type Report struct {
	Created int        `json:"created"`
	Skipped int        `json:"skipped"`
	Errors  []RowError `json:"errors,omitempty"`
}

type Service interface {
	// Import reads CSV rows from r and creates records in the named
	// collection ("people" or "products"). Rows are committed
	// independently; a bad row is reported and skipped, not fatal.
	Import(ctx context.Context, collection string, r io.Reader) (Report, error)
}

type Params struct {
	fx.In

	Log      *zap.Logger
	People   persondomain.Service
	Products productdomain.Service
}

type service struct {
	log      *zap.Logger
	people   persondomain.Service
	products productdomain.Service
}

func New(p Params) Service {
	return &service{
		log:      p.Log.Named("bulkimport.service"),
		people:   p.People,
		products: p.Products,
	}
}

func (s *service) Import(ctx context.Context, collection string, r io.Reader) (Report, error) {
	switch strings.TrimSpace(collection) {
	case "people":
		return s.run(ctx, r, s.importPerson)
	case "products":
		return s.run(ctx, r, s.importProduct)
	default:
		return Report{}, ErrUnknownCollection
	}
}

type rowImporter func(ctx context.Context, header map[string]int, record []string) error

func (s *service) run(ctx context.Context, r io.Reader, importRow rowImporter) (Report, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headerRecord, err := reader.Read()
	if err != nil {
		return Report{}, ErrMissingHeader
	}
	header := make(map[string]int, len(headerRecord))
	for i, name := range headerRecord {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}

	report := Report{}
	line := 1
	for {
		line++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}
		if err := importRow(ctx, header, record); err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}
		report.Created++
	}

	s.log.Info("bulk import finished",
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

func (s *service) importPerson(ctx context.Context, header map[string]int, record []string) error {
	_, err := s.people.Create(ctx, persondomain.CreatePersonRequest{
		Name:  field(header, record, "name"),
		Phone: field(header, record, "phone"),
		Email: field(header, record, "email"),
		TaxID: field(header, record, "tax_id"),
		Role:  persondomain.Role(field(header, record, "role")),
	})
	return err
}

func (s *service) importProduct(ctx context.Context, header map[string]int, record []string) error {
	req := productdomain.CreateProductRequest{
		Code:        field(header, record, "code"),
		Name:        field(header, record, "name"),
		Description: field(header, record, "description"),
		Barcode:     field(header, record, "barcode"),
		Kind:        productdomain.Kind(field(header, record, "kind")),
		Category:    field(header, record, "category"),
		Unit:        field(header, record, "unit"),
	}

	var err error
	if req.CostPrice, err = numberField(header, record, "cost_price"); err != nil {
		return err
	}
	if req.SellPrice, err = numberField(header, record, "sell_price"); err != nil {
		return err
	}
	if req.Stock, err = optionalNumberField(header, record, "stock"); err != nil {
		return err
	}
	if req.MinStock, err = optionalNumberField(header, record, "min_stock"); err != nil {
		return err
	}

	_, err = s.products.Create(ctx, req)
	return err
}

func field(header map[string]int, record []string, name string) string {
	i, ok := header[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func numberField(header map[string]int, record []string, name string) (float64, error) {
	value := field(header, record, name)
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid_number_%s", name)
	}
	return parsed, nil
}

func optionalNumberField(header map[string]int, record []string, name string) (*float64, error) {
	value := field(header, record, name)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid_number_%s", name)
	}
	return &parsed, nil
}

var Module = fx.Module("bulkimport.service",
	fx.Provide(New),
)
