package etl

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/alstn9213/open-insight/internal/model"
)

// LoadRegionsXLSX reads the region seed workbook. The first sheet must have
// a header row followed by columns province, district, town, adm_code. Town
// may be blank for district-level rows.
func LoadRegionsXLSX(path string) ([]model.Region, error) {
	rows, err := readSheet(path)
	if err != nil {
		return nil, err
	}

	var regions []model.Region
	for i, cells := range rows {
		if len(cells) < 4 {
			return nil, eris.Errorf("etl: region row %d has %d columns, want 4", i+2, len(cells))
		}
		r := model.Region{
			Province: strings.TrimSpace(cells[0]),
			District: strings.TrimSpace(cells[1]),
			Town:     strings.TrimSpace(cells[2]),
			AdmCode:  strings.TrimSpace(cells[3]),
		}
		if r.Province == "" || r.District == "" || r.AdmCode == "" {
			return nil, eris.Errorf("etl: region row %d is missing required fields", i+2)
		}
		regions = append(regions, r)
	}
	return regions, nil
}

// LoadCategoriesXLSX reads the category seed workbook: a header row then one
// category name per row. Blank rows are skipped.
func LoadCategoriesXLSX(path string) ([]model.Category, error) {
	rows, err := readSheet(path)
	if err != nil {
		return nil, err
	}

	var categories []model.Category
	for _, cells := range rows {
		if len(cells) == 0 {
			continue
		}
		name := strings.TrimSpace(cells[0])
		if name == "" {
			continue
		}
		categories = append(categories, model.Category{Name: name})
	}
	return categories, nil
}

func readSheet(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "etl: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("etl: workbook has no sheets")
	}

	var rows [][]string
	for i, row := range f.Sheets[0].Rows {
		if i == 0 {
			continue // header
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
