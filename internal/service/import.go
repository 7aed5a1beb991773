package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/RoGogDBD/closet/internal/models"
	"github.com/RoGogDBD/closet/internal/sheet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RowResult описывает итог импорта одной строки таблицы.
type RowResult struct {
	Row   int    `json:"row"`
	SKU   string `json:"sku"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ImportReport описывает итог импорта таблицы.
type ImportReport struct {
	Imported int         `json:"imported"`
	Failed   int         `json:"failed"`
	Rows     []RowResult `json:"rows"`
}

// ImportItems создает вещи из строк таблицы по одной, тем же путем, что и CreateItem.
// Ошибка строки не прерывает импорт; ошибка хранилища прерывает.
func (s *Inventory) ImportItems(ctx context.Context, categoryID uuid.UUID, rows []sheet.Row, sold bool) (*ImportReport, error) {
	if _, err := s.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	report := &ImportReport{Rows: make([]RowResult, 0, len(rows))}
	for _, row := range rows {
		result := RowResult{Row: row.Line, SKU: row.SKU}

		in, err := rowInput(categoryID, row, sold)
		if err == nil {
			_, err = s.CreateItem(ctx, in)
		}
		if err != nil {
			var svcErr *Error
			if !errors.As(err, &svcErr) {
				return nil, err
			}
			result.Error = svcErr.Message
			report.Failed++
		} else {
			result.OK = true
			report.Imported++
		}
		report.Rows = append(report.Rows, result)
	}

	s.logger.Info("items imported",
		zap.String("category_id", categoryID.String()),
		zap.Int("imported", report.Imported),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// ImportSheet разбирает xlsx-файл и импортирует его строки.
func (s *Inventory) ImportSheet(ctx context.Context, categoryID uuid.UUID, file io.Reader, sold bool) (*ImportReport, error) {
	rows, err := sheet.Parse(file)
	if err != nil {
		return nil, newError(ErrValidation, "invalid spreadsheet: %v", err)
	}
	return s.ImportItems(ctx, categoryID, rows, sold)
}

// ExportItems возвращает категорию и ее вещи по возрастанию позиции.
func (s *Inventory) ExportItems(ctx context.Context, categoryID uuid.UUID, sold *bool) (*models.Category, []models.Item, error) {
	category, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.ListItems(ctx, categoryID, sold)
	if err != nil {
		return nil, nil, err
	}
	return category, items, nil
}

func rowInput(categoryID uuid.UUID, row sheet.Row, sold bool) (ItemInput, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(row.Price), "$"))
	if raw == "" {
		return ItemInput{}, newError(ErrValidation, "price is required")
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return ItemInput{}, newError(ErrValidation, "invalid price %q", row.Price)
	}
	value := price.InexactFloat64()

	return ItemInput{
		CategoryID: categoryID,
		ItemFields: ItemFields{
			Brand: row.Brand,
			Size:  row.Size,
			SKU:   row.SKU,
			Price: &value,
		},
		Sold: &sold,
	}, nil
}
