// Package fetcher downloads Splunkbase archives and reads and writes the CSV
// and tar.gz files the pipeline stages exchange.
package fetcher

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Option adjusts how rows are mapped between struct tags and file columns.
type Option func(*csvOptions)

type csvOptions struct {
	columns map[string]string // struct tag -> file header
}

// WithColumn writes the field tagged tag under the file header name, and
// binds a file column named header back to that field when reading.
func WithColumn(tag, header string) Option {
	return func(o *csvOptions) {
		if o.columns == nil {
			o.columns = make(map[string]string)
		}
		o.columns[tag] = header
	}
}

func applyOptions(opts []Option) csvOptions {
	var o csvOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewCSVDecoder returns a csvutil decoder over r. A leading UTF-8 (or UTF-16)
// byte order mark is consumed and header names are normalized so that
// " Title" and "title" bind to the same struct field. Records shorter than
// the header are padded with empty fields and longer ones are truncated. An
// input with no header row yields (nil, io.EOF).
func NewCSVDecoder(r io.Reader, opts ...Option) (*csvutil.Decoder, error) {
	o := applyOptions(opts)

	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}

	fileToTag := make(map[string]string, len(o.columns))
	for tag, h := range o.columns {
		fileToTag[NormalizeHeader(h)] = tag
	}

	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = NormalizeHeader(h)
		if tag, ok := fileToTag[normalized[i]]; ok {
			normalized[i] = tag
		}
	}

	dec, err := csvutil.NewDecoder(&fixedWidthReader{r: cr, width: len(normalized)}, normalized...)
	if err != nil {
		return nil, eris.Wrap(err, "csv: new decoder")
	}
	return dec, nil
}

// fixedWidthReader forces every record to the header width.
type fixedWidthReader struct {
	r     *csv.Reader
	width int
}

func (f *fixedWidthReader) Read() ([]string, error) {
	rec, err := f.r.Read()
	if err != nil {
		return rec, err
	}
	switch {
	case len(rec) < f.width:
		rec = append(rec, make([]string, f.width-len(rec))...)
	case len(rec) > f.width:
		rec = rec[:f.width]
	}
	return rec, nil
}

// NormalizeHeader lowercases a column name, trims it and joins words with "_".
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(h), "_")
}

// ReadCSV decodes every row of the file at path into T.
func ReadCSV[T any](path string, opts ...Option) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return DecodeCSV[T](f, opts...)
}

// DecodeCSV decodes every row of r into T.
func DecodeCSV[T any](r io.Reader, opts ...Option) ([]T, error) {
	dec, err := NewCSVDecoder(r, opts...)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []T
	for line := 2; ; line++ {
		var v T
		err := dec.Decode(&v)
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, eris.Wrapf(err, "csv: decode line %d", line)
		}
		out = append(out, v)
	}
	return out, nil
}

// WriteCSV writes rows to path with a header derived from T's csv tags. The
// header is written even when rows is empty. Parent directories are created.
func WriteCSV[T any](path string, rows []T, opts ...Option) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "csv: create directory for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "csv: create %s", path)
	}

	if err := EncodeCSV(f, rows, opts...); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "csv: close %s", path)
}

// EncodeCSV writes a header row and one row per element of rows to w.
func EncodeCSV[T any](w io.Writer, rows []T, opts ...Option) error {
	o := applyOptions(opts)

	var zero T
	header, err := csvutil.Header(zero, "csv")
	if err != nil {
		return eris.Wrap(err, "csv: derive header")
	}
	for i, tag := range header {
		if h, ok := o.columns[tag]; ok {
			header[i] = h
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "csv: write header")
	}

	enc := csvutil.NewEncoder(cw)
	enc.AutoHeader = false
	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			return eris.Wrapf(err, "csv: encode row %d", i+1)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "csv: flush")
}
