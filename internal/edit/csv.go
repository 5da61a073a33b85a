package edit

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

var ErrCSVColumn = errors.New("csv column not found")

// LoadCSVColumn reads one numeric column from a CSV file. The values join
// traces positionally: row 0 edits trace 0 and so on. A first row whose
// cells do not all parse as numbers is treated as a header; column selects
// by header name. Headerless files are positional and the first column is
// used regardless of the requested name. Rows missing the column are
// skipped.
func LoadCSVColumn(path, column string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv %s is empty", path)
	}

	col := 0
	data := rows
	if hasHeader(rows[0]) {
		data = rows[1:]
		if column != "" {
			col = -1
			for i, name := range rows[0] {
				if strings.EqualFold(strings.TrimSpace(name), column) {
					col = i
					break
				}
			}
			if col < 0 {
				return nil, fmt.Errorf("%w: %q in %s", ErrCSVColumn, column, path)
			}
		}
	}

	out := make([]int, 0, len(data))
	for i, row := range data {
		if col >= len(row) || strings.TrimSpace(row[col]) == "" {
			continue
		}
		v, err := parseNumeric(row[col])
		if err != nil {
			return nil, fmt.Errorf("csv %s row %d: %w", path, i+1, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func hasHeader(row []string) bool {
	for _, cell := range row {
		if _, err := parseNumeric(cell); err != nil {
			return true
		}
	}
	return false
}

func parseNumeric(s string) (int, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("value %q is not numeric", s)
	}
	return int(math.Round(f)), nil
}
