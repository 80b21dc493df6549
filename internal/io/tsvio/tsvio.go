package tsvio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gnames/gnsys"
	"github.com/klauspost/compress/gzip"
)

// Row is one data row of a delimited file.
type Row struct {
	// Line is the 1-based line number in the file.
	Line int

	cells []string
	idx   map[string]int
}

// Get returns a cell by header name. The second value is false if there is
// no such column in the header.
func (r Row) Get(col string) (string, bool) {
	i, ok := r.idx[col]
	if !ok {
		return "", false
	}
	if i >= len(r.cells) {
		return "", true
	}
	return r.cells[i], true
}

// Reader reads a tab-separated file with a header in chunks of rows. Plain
// and gzipped files are supported.
type Reader struct {
	path   string
	chunk  int
	header []string
	idx    map[string]int
}

// Open reads the header of a file and prepares it for chunked reading.
func Open(path string, chunkSize int) (*Reader, error) {
	exists, err := gnsys.FileExists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("file %s: %w", path, os.ErrNotExist)
	}
	if chunkSize < 1 {
		chunkSize = 1000
	}
	res := Reader{path: path, chunk: chunkSize}

	f, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := newCSV(f)
	res.header, err = readHeader(r)
	if err != nil {
		slog.Error("Cannot read header", "path", path, "error", err)
		return nil, err
	}
	res.idx = index(res.header)
	return &res, nil
}

// Path returns the file path.
func (r *Reader) Path() string {
	return r.path
}

// Header returns column names.
func (r *Reader) Header() []string {
	return r.header
}

// Chunks reads the file from the start and sends rows in chunks to ch.
// Every call restarts reading from the first data row. The channel is not
// closed.
func (r *Reader) Chunks(ctx context.Context, ch chan<- []Row) error {
	f, err := OpenFile(r.path)
	if err != nil {
		return err
	}
	defer f.Close()

	cr := newCSV(f)
	if _, err = cr.Read(); err != nil {
		return err
	}

	line := 1
	chunk := make([]Row, 0, r.chunk)
	for {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			slog.Error("Cannot read row", "path", r.path, "line", line,
				"error", err)
			return fmt.Errorf("%s line %d: %w", r.path, line, err)
		}
		chunk = append(chunk, Row{Line: line, cells: cells, idx: r.idx})
		if len(chunk) < r.chunk {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ch <- chunk:
		}
		chunk = make([]Row, 0, r.chunk)
	}

	if len(chunk) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ch <- chunk:
		}
	}
	return nil
}

// Scan reads all rows of a delimited stream and calls fn for each. It
// returns the header.
func Scan(rd io.Reader, fn func(Row) error) ([]string, error) {
	cr := newCSV(rd)
	header, err := readHeader(cr)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	idx := index(header)
	line := 1
	for {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return header, nil
		}
		line++
		if err != nil {
			return header, fmt.Errorf("line %d: %w", line, err)
		}
		if err = fn(Row{Line: line, cells: cells, idx: idx}); err != nil {
			return header, err
		}
	}
}

// CountRows returns the number of data rows in a delimited stream.
func CountRows(rd io.Reader) (int, error) {
	var res int
	_, err := Scan(rd, func(Row) error {
		res++
		return nil
	})
	return res, err
}

// OpenFile opens a file, decompressing it if its name ends with `.gz`.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &gzipFile{Reader: gz, f: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if ferr := g.f.Close(); err == nil {
		err = ferr
	}
	return err
}

func newCSV(rd io.Reader) *csv.Reader {
	r := csv.NewReader(rd)
	r.Comma = '\t'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	return r
}

func readHeader(r *csv.Reader) ([]string, error) {
	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	return header, nil
}

func index(header []string) map[string]int {
	res := make(map[string]int, len(header))
	for i, h := range header {
		if _, ok := res[h]; !ok {
			res[h] = i
		}
	}
	return res
}
