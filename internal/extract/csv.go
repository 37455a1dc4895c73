package extract

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// FilenameColumn holds the deterministic output base name of each row.
const FilenameColumn = "filename"

// WriteCSV writes one row per record. Columns are the sorted union of all
// keys across rows, with the filename column first; keys absent from a row
// serialize empty.
func WriteCSV(path string, rows []map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}

	keySet := make(map[string]bool)
	for _, row := range rows {
		for k := range row {
			keySet[k] = true
		}
	}
	delete(keySet, FilenameColumn)

	columns := make([]string, 0, len(keySet)+1)
	for k := range keySet {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	columns = append([]string{FilenameColumn}, columns...)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create CSV: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(columns); err != nil {
		return err
	}

	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := row[col]; ok {
				cells[i] = FormatValue(v)
			}
		}
		if err := w.Write(cells); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// FormatValue serializes an extracted value into its CSV cell form.
// Multi-valued entries use the bracketed "[a, b]" form that the
// reconstruction side parses back.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case []byte:
		return formatList(len(t), func(i int) string { return strconv.Itoa(int(t[i])) })
	case []string:
		return formatList(len(t), func(i int) string { return t[i] })
	case []int:
		return formatList(len(t), func(i int) string { return strconv.Itoa(t[i]) })
	case []float64:
		return formatList(len(t), func(i int) string { return strconv.FormatFloat(t[i], 'g', -1, 64) })
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatList(n int, cell func(int) string) string {
	out := "["
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ", "
		}
		out += cell(i)
	}
	return out + "]"
}
