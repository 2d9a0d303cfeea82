package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// LoadOptions configures Load.
type LoadOptions struct {
	CSV  CSVOptions
	XLSX XLSXOptions
}

// Load reads a dataset from path, choosing the parser from the file
// extension. ".tsv" files default to a tab delimiter.
func Load(ctx context.Context, path string, opts LoadOptions) (*Dataset, error) {
	name := filepath.Base(path)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return ReadXLSX(name, path, opts.XLSX)
	case ".csv", ".tsv", ".txt", "":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: open %s", path)
		}
		defer f.Close() //nolint:errcheck

		csvOpts := opts.CSV
		if ext == ".tsv" && csvOpts.Delimiter == 0 {
			csvOpts.Delimiter = '\t'
		}
		return ReadCSV(ctx, name, f, csvOpts)
	default:
		return nil, eris.Errorf("dataset: unsupported file type %q", ext)
	}
}
