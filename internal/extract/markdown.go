package extract

import (
	"strconv"
	"strings"
)

// RenderTable renders rows as a pipe table. Detected tables have no header
// row, so the header holds the column indices and every row is data.
func RenderTable(rows [][]string) string {
	ncols := 0
	for _, r := range rows {
		if len(r) > ncols {
			ncols = len(r)
		}
	}
	if ncols == 0 {
		return ""
	}

	header := make([]string, ncols)
	sep := make([]string, ncols)
	for i := range header {
		header[i] = strconv.Itoa(i)
		sep[i] = "---"
	}
	lines := []string{pipeRow(header), pipeRow(sep)}
	for _, r := range rows {
		cells := make([]string, ncols)
		for i := range cells {
			if i < len(r) {
				cells[i] = escapeCell(r[i])
			}
		}
		lines = append(lines, pipeRow(cells))
	}
	return strings.Join(lines, "\n")
}

// StructuredRows keys each cell by its column index.
func StructuredRows(rows [][]string) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
	for _, r := range rows {
		m := make(map[string]string, len(r))
		for i, v := range r {
			m[strconv.Itoa(i)] = v
		}
		out = append(out, m)
	}
	return out
}

// ParseTable splits a markdown pipe table into cells, dropping the
// delimiter row. Lines that are not table rows are ignored.
func ParseTable(md string) [][]string {
	var out [][]string
	for _, ln := range strings.Split(md, "\n") {
		ln = strings.TrimSpace(ln)
		if !strings.HasPrefix(ln, "|") {
			continue
		}
		ln = strings.TrimSuffix(strings.TrimPrefix(ln, "|"), "|")
		cells := splitCells(ln)
		if isDelimiterRow(cells) {
			continue
		}
		out = append(out, cells)
	}
	return out
}

func pipeRow(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func splitCells(ln string) []string {
	var cells []string
	var cur strings.Builder
	for i := 0; i < len(ln); i++ {
		switch {
		case ln[i] == '\\' && i+1 < len(ln) && ln[i+1] == '|':
			cur.WriteByte('|')
			i++
		case ln[i] == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(ln[i])
		}
	}
	return append(cells, strings.TrimSpace(cur.String()))
}

func isDelimiterRow(cells []string) bool {
	for _, c := range cells {
		if strings.Trim(c, ":-") != "" || !strings.Contains(c, "-") {
			return false
		}
	}
	return len(cells) > 0
}
