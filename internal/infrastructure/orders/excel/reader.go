package excel

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/steelhub/parts-matcher/internal/core/domain"
)

// Expected column order of an order sheet. A header row is detected and
// skipped when the first data cell is not parseable as a position number.
//
//	position | description | quantity | unit | material | part number | urgency
const (
	colPosition = iota
	colDescription
	colQuantity
	colUnit
	colMaterial
	colPartNumber
	colUrgency
)

// ReadLineItems parses the first sheet of a customer order workbook into
// line items. Rows without a description are skipped.
func ReadLineItems(r io.Reader) ([]domain.LineItem, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "open order workbook", err)
	}
	defer func() {
		_ = workbook.Close()
	}()

	sheet := workbook.GetSheetName(0)
	if sheet == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read order workbook",
			fmt.Errorf("workbook has no sheets"))
	}

	rows, err := workbook.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	items := make([]domain.LineItem, 0, len(rows))
	for i, row := range rows {
		if i == 0 && isHeaderRow(row) {
			continue
		}
		description := cell(row, colDescription)
		if description == "" {
			continue
		}

		item := domain.LineItem{
			ID:             uuid.NewString(),
			RawText:        description,
			Unit:           cell(row, colUnit),
			MaterialHint:   cell(row, colMaterial),
			PartNumberHint: cell(row, colPartNumber),
			Urgency:        strings.ToLower(cell(row, colUrgency)),
		}
		if qty, err := strconv.ParseFloat(cell(row, colQuantity), 64); err == nil {
			item.Quantity = qty
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read order workbook",
			fmt.Errorf("no usable line items in sheet %q", sheet))
	}
	return items, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isHeaderRow(row []string) bool {
	first := cell(row, colPosition)
	if first == "" {
		return true
	}
	_, err := strconv.ParseFloat(first, 64)
	return err != nil
}
