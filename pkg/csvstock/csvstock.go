// Package csvstock parses warehouse stock exports: one "sku,stock" pair per
// line, optionally ending in a metadata footer of the form
// "id=<ISO timestamp>,stock=<HH:MM>".
package csvstock

import (
	"encoding/csv"
	"regexp"
	"strconv"
	"strings"
)

// Row is a single stock level read from the export.
type Row struct {
	SKU   string `json:"sku"`
	Stock int    `json:"stock"`
}

// Report is the outcome of parsing an export.
type Report struct {
	StockExportTime *string  `json:"stockExportTime,omitempty"`
	ValidRows       []Row    `json:"validRows"`
	UnparsedRows    []string `json:"unparsedRows"`
}

var footerRe = regexp.MustCompile(`^id=(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}.\d{3}Z),stock=(\d{2}:\d{2})$`)

var lineBreak = regexp.MustCompile(`\r?\n`)

// Parse splits raw into rows. Blank lines are ignored. Lines that do not
// yield a non-empty SKU and a non-negative integer stock are reported as unparsed,
// except the last line, which is the footer slot. When the footer matches,
// its time becomes StockExportTime and a trailing row whose SKU starts with
// "id=" is dropped.
func Parse(raw string) Report {
	var lines []string
	for _, l := range lineBreak.Split(raw, -1) {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}

	rep := Report{ValidRows: []Row{}, UnparsedRows: []string{}}
	if len(lines) == 0 {
		return rep
	}

	for i, line := range lines {
		row, ok := parseLine(line)
		if ok {
			rep.ValidRows = append(rep.ValidRows, row)
			continue
		}
		if i < len(lines)-1 {
			rep.UnparsedRows = append(rep.UnparsedRows, line)
		}
	}

	if m := footerRe.FindStringSubmatch(lines[len(lines)-1]); m != nil {
		exported := m[2]
		rep.StockExportTime = &exported
		if n := len(rep.ValidRows); n > 0 && strings.HasPrefix(rep.ValidRows[n-1].SKU, "id=") {
			rep.ValidRows = rep.ValidRows[:n-1]
		}
	}
	return rep
}

func parseLine(line string) (Row, bool) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	fields, err := r.Read()
	if err != nil || len(fields) < 2 {
		return Row{}, false
	}

	sku := strings.TrimSpace(fields[0])
	stock, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if sku == "" || err != nil || stock < 0 {
		return Row{}, false
	}
	return Row{SKU: sku, Stock: stock}, true
}
