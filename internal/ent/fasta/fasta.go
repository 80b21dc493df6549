// Package fasta reads nucleotide and protein sequences in FASTA format.
package fasta

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrFormat is returned for input that is not FASTA.
var ErrFormat = errors.New("malformed FASTA")

// Record is one sequence.
type Record struct {
	// ID is the first token of the header line.
	ID string `json:"id"`

	// Description is the rest of the header line.
	Description string `json:"description,omitempty"`

	// Seq is the sequence with line breaks removed.
	Seq string `json:"sequence"`

	// Len is the number of residues.
	Len int `json:"length"`
}

// Reader reads records one by one.
type Reader struct {
	sc     *bufio.Scanner
	header string
	line   int
	done   bool
}

// NewReader creates a Reader.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{sc: sc}
}

// Next returns the next record or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	var res Record
	if r.done {
		return res, io.EOF
	}

	if r.header == "" {
		for r.sc.Scan() {
			r.line++
			line := bytes.TrimSpace(r.sc.Bytes())
			if len(line) == 0 {
				continue
			}
			if line[0] != '>' {
				return res, fmt.Errorf("line %d: %w", r.line, ErrFormat)
			}
			r.header = string(line[1:])
			break
		}
		if err := r.sc.Err(); err != nil {
			return res, err
		}
		if r.header == "" {
			r.done = true
			return res, io.EOF
		}
	}

	res.ID, res.Description, _ = strings.Cut(strings.TrimSpace(r.header), " ")
	res.Description = strings.TrimSpace(res.Description)
	if res.ID == "" {
		return res, fmt.Errorf("line %d: empty header: %w", r.line, ErrFormat)
	}
	r.header = ""

	var seq strings.Builder
	for r.sc.Scan() {
		r.line++
		line := bytes.TrimSpace(r.sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			r.header = string(line[1:])
			break
		}
		seq.Write(line)
	}
	if err := r.sc.Err(); err != nil {
		return res, err
	}
	if r.header == "" {
		r.done = true
	}
	res.Seq = seq.String()
	res.Len = len(res.Seq)
	return res, nil
}

// ReadAll returns all records.
func ReadAll(r io.Reader) ([]Record, error) {
	var res []Record
	fr := NewReader(r)
	for {
		rec, err := fr.Next()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
}

// Write writes a record wrapping the sequence at width characters.
func Write(w io.Writer, rec Record, width int) error {
	header := rec.ID
	if rec.Description != "" {
		header += " " + rec.Description
	}
	if _, err := fmt.Fprintf(w, ">%s\n", header); err != nil {
		return err
	}
	if width <= 0 {
		width = len(rec.Seq)
	}
	for i := 0; i < len(rec.Seq); i += width {
		end := min(i+width, len(rec.Seq))
		if _, err := fmt.Fprintln(w, rec.Seq[i:end]); err != nil {
			return err
		}
	}
	return nil
}
