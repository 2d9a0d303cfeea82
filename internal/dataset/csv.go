package dataset

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVOptions configures the CSV reader.
type CSVOptions struct {
	Delimiter  rune   // default ','
	Comment    rune   // comment character (0 = none)
	Encoding   string // IANA/HTML label, default utf-8
	LazyQuotes bool
	TrimSpace  bool
}

// StreamCSV reads CSV records from r and sends them to a channel, header
// record included. A UTF-8 or UTF-16 byte order mark is consumed and the
// remaining bytes are decoded from opts.Encoding.
// Caller must consume the returned row channel. Errors are sent on the error channel.
// Both channels are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		src, err := decodingReader(r, opts.Encoding)
		if err != nil {
			errCh <- err
			return
		}

		reader := csv.NewReader(src)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1 // allow variable fields

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			if opts.TrimSpace {
				for i, field := range record {
					record[i] = strings.TrimSpace(field)
				}
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// ReadCSV reads a whole CSV document into a Dataset. The first record is
// the header.
func ReadCSV(ctx context.Context, name string, r io.Reader, opts CSVOptions) (*Dataset, error) {
	rowCh, errCh := StreamCSV(ctx, r, opts)

	var header []string
	var records [][]string
	first := true
	for rec := range rowCh {
		if first {
			header = rec
			first = false
			continue
		}
		records = append(records, rec)
	}
	for err := range errCh {
		if err != nil {
			return nil, eris.Wrapf(err, "csv: parse %s", name)
		}
	}

	if first {
		return nil, eris.Errorf("csv: %s is empty", name)
	}
	return New(name, header, records), nil
}

func decodingReader(r io.Reader, label string) (io.Reader, error) {
	if label == "" {
		label = "utf-8"
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: unknown encoding %q", label)
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}
