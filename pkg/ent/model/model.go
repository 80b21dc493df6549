package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Taxon is a top-level group of organisms the catalog keeps separate
// schemas for.
type Taxon string

const (
	Bacteria Taxon = "bacteria"
	Archaea  Taxon = "archaea"
	Fungi    Taxon = "fungi"
	Viruses  Taxon = "viruses"
)

// Taxa lists all taxa in the order they are reported.
var Taxa = []Taxon{Bacteria, Archaea, Fungi, Viruses}

// Dir returns the capitalized name used in file-system layouts.
func (t Taxon) Dir() string {
	switch t {
	case Bacteria:
		return "Bacteria"
	case Archaea:
		return "Archaea"
	case Fungi:
		return "Fungi"
	case Viruses:
		return "Viruses"
	}
	return string(t)
}

// NewTaxon parses a taxon name, case-insensitive.
func NewTaxon(s string) (Taxon, error) {
	t := Taxon(strings.ToLower(s))
	for _, v := range Taxa {
		if v == t {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown taxon %q", s)
}

// MAGStatus tells if genomes are metagenome-assembled or not.
type MAGStatus string

const (
	MAG   MAGStatus = "mag"
	UnMAG MAGStatus = "unmag"
)

// MAGStatuses lists both assembly partitions.
var MAGStatuses = []MAGStatus{MAG, UnMAG}

// Dir returns the name used in file-system layouts.
func (m MAGStatus) Dir() string {
	if m == MAG {
		return "MAG"
	}
	return "unMAG"
}

// NewMAGStatus parses a MAG status, case-insensitive.
func NewMAGStatus(s string) (MAGStatus, error) {
	switch MAGStatus(strings.ToLower(s)) {
	case MAG:
		return MAG, nil
	case UnMAG:
		return UnMAG, nil
	}
	return "", fmt.Errorf("unknown MAG status %q", s)
}

// Partition is a (taxon, MAG status) pair. Every entity family belongs to
// exactly one partition and genome unique IDs are unique inside it.
type Partition struct {
	Taxon Taxon
	MAG   MAGStatus
}

// String returns a `taxon_mag` form used as a table name prefix.
func (p Partition) String() string {
	return string(p.Taxon) + "_" + string(p.MAG)
}

// Partitions returns all taxon/MAG combinations.
func Partitions() []Partition {
	res := make([]Partition, 0, len(Taxa)*len(MAGStatuses))
	for _, t := range Taxa {
		for _, m := range MAGStatuses {
			res = append(res, Partition{Taxon: t, MAG: m})
		}
	}
	return res
}

// Strand is the DNA strand of an annotated feature.
type Strand string

const (
	Forward Strand = "+"
	Reverse Strand = "-"
)

// NewStrand converts source notations of strand to Strand.
func NewStrand(s string) (Strand, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "+", "forward", "1", "+1":
		return Forward, nil
	case "-", "reverse", "-1":
		return Reverse, nil
	}
	return "", fmt.Errorf("cannot convert %q to strand", s)
}

// Record is one row of an entity family keyed by field name. It always
// has an "id" field. Multi-valued fields hold []string, structured
// fields hold json.RawMessage.
type Record map[string]any

// ID returns the primary key of the record.
func (r Record) ID() int64 {
	if id, ok := r["id"].(int64); ok {
		return id
	}
	return 0
}

// String returns a field value as a string, or an empty string.
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case string:
		return v
	case json.RawMessage:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Statistic is a cached key/value row produced by the materializer.
// Payload is a JSON document: a number for counts, an object of ordered
// lists for filter options.
type Statistic struct {
	// Name is the key, for example `count:bacteria_mag_protein`.
	Name string `gorm:"type:varchar(255);primary_key"`

	// Payload keeps the JSON-encoded value.
	Payload string `gorm:"type:text;not null"`
}

// TableName sets the table name for gorm.
func (Statistic) TableName() string {
	return "statistics"
}

// Model migrates tables of static models such as Statistic.
type Model interface {
	// Migrate creates or updates tables.
	Migrate() error
}
