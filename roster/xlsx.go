package roster

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// MissingColumnError means the workbook has no phone column under the
// configured name. Available lists the columns that were found, so the
// admin can fix the sheet or the configured column name.
type MissingColumnError struct {
	Column    string   `json:"column"`
	Available []string `json:"available"`
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing %q column (available: %s)",
		e.Column, strings.Join(e.Available, ", "))
}

// ParseWorkbook reads the first sheet of an .xlsx roster. The first
// row names the columns; phoneColumn designates the phone cells and
// every other column becomes an employee attribute. Empty cells map to
// nil attributes.
func ParseWorkbook(r io.Reader, phoneColumn string) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("no worksheet found")
	}

	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("worksheet is empty")
	}

	header := cells[0]
	phoneIdx := -1
	for i, name := range header {
		if strings.TrimSpace(name) == phoneColumn {
			phoneIdx = i
			break
		}
	}
	if phoneIdx < 0 {
		available := make([]string, 0, len(header))
		for _, name := range header {
			if name = strings.TrimSpace(name); name != "" {
				available = append(available, name)
			}
		}
		return nil, &MissingColumnError{Column: phoneColumn, Available: available}
	}

	rows := make([]Row, 0, len(cells)-1)
	for _, line := range cells[1:] {
		row := Row{Attrs: map[string]*string{}}
		for i, name := range header {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			value := ""
			if i < len(line) {
				value = strings.TrimSpace(line[i])
			}
			if i == phoneIdx {
				row.Phone = value
				continue
			}
			if value == "" {
				row.Attrs[name] = nil
			} else {
				v := value
				row.Attrs[name] = &v
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
