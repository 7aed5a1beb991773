// Package sheet читает и формирует xlsx-таблицы вещей.
//
// Импорт сопоставляет заголовки колонок с полями по объявленному списку
// псевдонимов. Цвет из файла не читается: он всегда выводится из цены.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/RoGogDBD/closet/internal/models"
	"github.com/xuri/excelize/v2"
)

// SheetName задает имя листа при экспорте.
const SheetName = "Clothing"

// Field обозначает поле вещи, читаемое из таблицы.
type Field string

const (
	FieldSKU   Field = "sku"
	FieldBrand Field = "brand"
	FieldSize  Field = "size"
	FieldPrice Field = "price"
)

// Aliases перечисляет допустимые заголовки для каждого поля.
// Сравнение без учета регистра и крайних пробелов.
var Aliases = map[Field][]string{
	FieldSKU:   {"SKU", "SKU/Tag", "Tag"},
	FieldBrand: {"Brand"},
	FieldSize:  {"Size"},
	FieldPrice: {"Price"},
}

var requiredFields = []Field{FieldSKU, FieldBrand, FieldSize, FieldPrice}

var (
	ErrNoSheet = errors.New("workbook has no sheets")
	ErrNoRows  = errors.New("sheet has no header row")
	// ErrMissingColumn возвращается, если нет колонки для обязательного поля.
	ErrMissingColumn = errors.New("missing required column")
)

// Row содержит строку данных таблицы. Line хранит номер строки в файле, начиная с 1.
type Row struct {
	Line  int
	SKU   string
	Brand string
	Size  string
	Price string
}

// Parse читает первый лист книги. Первая строка считается заголовком.
// Пустые строки пропускаются.
func Parse(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, ErrNoRows
	}

	columns, err := MapHeader(records[0])
	if err != nil {
		return nil, err
	}

	var rows []Row
	for i, record := range records[1:] {
		if blank(record) {
			continue
		}
		rows = append(rows, Row{
			Line:  i + 2,
			SKU:   cell(record, columns[FieldSKU]),
			Brand: cell(record, columns[FieldBrand]),
			Size:  cell(record, columns[FieldSize]),
			Price: cell(record, columns[FieldPrice]),
		})
	}
	return rows, nil
}

// MapHeader возвращает индекс колонки для каждого поля.
// Если несколько колонок подходят под одно поле, берется первая.
func MapHeader(header []string) (map[Field]int, error) {
	lookup := make(map[string]Field)
	for field, aliases := range Aliases {
		for _, alias := range aliases {
			lookup[normalize(alias)] = field
		}
	}

	columns := make(map[Field]int)
	for i, name := range header {
		field, ok := lookup[normalize(name)]
		if !ok {
			continue
		}
		if _, seen := columns[field]; !seen {
			columns[field] = i
		}
	}

	var missing []string
	for _, field := range requiredFields {
		if _, ok := columns[field]; !ok {
			missing = append(missing, Aliases[field][0])
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return columns, nil
}

// Render формирует книгу с вещами в переданном порядке.
func Render(items []models.Item) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := []any{"Position", "SKU", "Brand", "Size", "Price", "Color"}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, it := range items {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		row := []any{i + 1, it.SKU, it.Brand, it.Size, it.Price.InexactFloat64(), it.Color}
		if err := f.SetSheetRow(SheetName, axis, &row); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return f, nil
}

// FileName возвращает имя файла экспорта для категории.
func FileName(categoryName string) string {
	name := strings.TrimSpace(categoryName)
	if name == "" {
		name = "clothing"
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	return name + "-inventory.xlsx"
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func cell(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
