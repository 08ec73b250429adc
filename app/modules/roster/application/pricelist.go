package rosterservice

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	rosterdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/domain"
)

// ErrInvalidPriceList wraps every price list import problem.
var ErrInvalidPriceList = errors.New("invalid price list")

var priceListColumns = []string{"id", "display_name", "country", "gender", "personal_best", "rank", "price"}

// ParsePriceListXLSX reads competitors from the first sheet of a workbook.
// The first row is a header naming the columns; order does not matter.
func ParsePriceListXLSX(data []byte) ([]rosterdomain.Competitor, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open XLSX file: %w", ErrInvalidPriceList, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: XLSX file has no sheets", ErrInvalidPriceList)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %w", ErrInvalidPriceList, sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: sheet %q has no competitor rows", ErrInvalidPriceList, sheets[0])
	}

	index, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int, len(rows)-1)
	competitors := make([]rosterdomain.Competitor, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		cell := func(col string) string {
			idx := index[col]
			if idx < 0 || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if cell("id") == "" && cell("display_name") == "" {
			continue
		}

		c, err := competitorFromCells(cell)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidPriceList, line, err)
		}
		if prev, ok := seen[c.ID]; ok {
			return nil, fmt.Errorf("%w: line %d: competitor %s already listed on line %d", ErrInvalidPriceList, line, c.ID, prev)
		}
		seen[c.ID] = line
		competitors = append(competitors, c)
	}

	if len(competitors) == 0 {
		return nil, fmt.Errorf("%w: no competitor rows found", ErrInvalidPriceList)
	}
	return competitors, nil
}

func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(priceListColumns))
	for _, col := range priceListColumns {
		index[col] = -1
	}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		key = strings.ReplaceAll(key, " ", "_")
		if _, ok := index[key]; ok {
			index[key] = i
		}
	}
	for _, required := range []string{"id", "gender", "price"} {
		if index[required] < 0 {
			return nil, fmt.Errorf("%w: missing %q column", ErrInvalidPriceList, required)
		}
	}
	return index, nil
}

func competitorFromCells(cell func(string) string) (rosterdomain.Competitor, error) {
	c := rosterdomain.Competitor{
		ID:          cell("id"),
		DisplayName: cell("display_name"),
		CountryCode: strings.ToUpper(cell("country")),
	}
	if c.ID == "" {
		return c, errors.New("competitor id is empty")
	}
	if c.DisplayName == "" {
		c.DisplayName = c.ID
	}

	switch strings.ToUpper(cell("gender")) {
	case "M", "MALE", "MEN":
		c.Gender = rosterdomain.GenderMale
	case "W", "F", "FEMALE", "WOMEN":
		c.Gender = rosterdomain.GenderFemale
	default:
		return c, fmt.Errorf("unknown gender %q", cell("gender"))
	}

	price, err := parseMoney(cell("price"))
	if err != nil {
		return c, err
	}
	c.Price = price

	if raw := cell("personal_best"); raw != "" {
		pb, err := ParseDuration(raw)
		if err != nil {
			return c, fmt.Errorf("personal best: %w", err)
		}
		c.PersonalBestSeconds = pb
	}

	if raw := cell("rank"); raw != "" {
		rank, err := strconv.Atoi(raw)
		if err != nil || rank < 1 {
			return c, fmt.Errorf("invalid rank %q", raw)
		}
		c.MarathonRank = &rank
	}
	return c, nil
}

func parseMoney(raw string) (rosterdomain.Money, error) {
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	n, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative price %q", raw)
	}
	return rosterdomain.Money(n), nil
}

// ParseDuration accepts h:mm:ss, m:ss or plain seconds.
func ParseDuration(raw string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		total = total*60 + v
	}
	return total, nil
}
