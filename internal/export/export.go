// Package export serializes join results to CSV, XLSX and JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadmatch/internal/join"
)

// DefaultFileName is used when no output path is given.
const DefaultFileName = "resultats-leads.csv"

// Format is an output encoding.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatJSON:
		return f, nil
	default:
		return "", eris.Errorf("export: unknown format %q (want csv, xlsx or json)", s)
	}
}

// FormatFromPath infers the format from a file extension, defaulting to CSV.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX
	case ".json":
		return FormatJSON
	default:
		return FormatCSV
	}
}

// Columns is the fixed output column order.
var Columns = []string{
	"Email",
	"Nom",
	"Prénom",
	"Statut Sheet",
	"Phase de la transaction",
	"Statut du lead",
	"Statut",
	"Proposition",
}

// row is the CSV shape of a join.Record; tags must follow Columns.
type row struct {
	Email       string `csv:"Email"`
	Name        string `csv:"Nom"`
	FirstName   string `csv:"Prénom"`
	SheetStatus string `csv:"Statut Sheet"`
	Phase       string `csv:"Phase de la transaction"`
	LeadStatus  string `csv:"Statut du lead"`
	Label       string `csv:"Statut"`
	Proposition string `csv:"Proposition"`
}

func toRow(r join.Record) row {
	return row{
		Email:       r.Key,
		Name:        r.Name,
		FirstName:   r.FirstName,
		SheetStatus: r.SheetStatus,
		Phase:       r.Phase,
		LeadStatus:  r.LeadStatus,
		Label:       string(r.Label),
		Proposition: string(r.Proposition),
	}
}

func (r row) cells() []string {
	return []string{r.Email, r.Name, r.FirstName, r.SheetStatus, r.Phase, r.LeadStatus, r.Label, r.Proposition}
}

// CSVOptions configures WriteCSV.
type CSVOptions struct {
	Delimiter rune // default ','
	BOM       bool // prefix a UTF-8 byte order mark for spreadsheet apps
}

// WriteCSV writes records with a header line, even when records is empty.
func WriteCSV(w io.Writer, records []join.Record, opts CSVOptions) error {
	if opts.BOM {
		if _, err := io.WriteString(w, "\ufeff"); err != nil {
			return eris.Wrap(err, "export: write bom")
		}
	}

	cw := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}

	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(row{}); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, r := range records {
		if err := enc.Encode(toRow(r)); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteXLSX writes records to a single "Résultats" worksheet.
func WriteXLSX(w io.Writer, records []join.Record) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Résultats")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	addRow(sheet, Columns)
	for _, r := range records {
		addRow(sheet, toRow(r).cells())
	}

	return eris.Wrap(f.Write(w), "export: write xlsx")
}

func addRow(sheet *xlsx.Sheet, values []string) {
	xr := sheet.AddRow()
	for _, v := range values {
		xr.AddCell().SetString(v)
	}
}

// WriteJSON writes the whole result, statistics included, as indented JSON.
func WriteJSON(w io.Writer, res *join.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(res), "export: encode json")
}

// Write encodes res in format f.
func Write(w io.Writer, f Format, res *join.Result, opts CSVOptions) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, res.Records)
	case FormatJSON:
		return WriteJSON(w, res)
	default:
		return WriteCSV(w, res.Records, opts)
	}
}

// ToFile creates path and writes res to it in format f.
func ToFile(path string, f Format, res *join.Result, opts CSVOptions) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = eris.Wrapf(cerr, "export: close %s", path)
		}
	}()

	return Write(out, f, res, opts)
}
