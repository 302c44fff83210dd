// Package rules supplies the discount rule tables from fixtures, JSON documents or Redis.
package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/noah-isme/toko-discount/internal/discount"
)

// Source loads rule tables. Implementations may perform I/O.
type Source interface {
	Load(ctx context.Context) (discount.Tables, error)
}

// Pinger is implemented by sources backed by a remote store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Static serves a fixed set of tables.
type Static struct {
	tables discount.Tables
}

// NewStatic wraps tables in a Source.
func NewStatic(tables discount.Tables) *Static {
	return &Static{tables: tables}
}

// Load implements Source.
func (s *Static) Load(context.Context) (discount.Tables, error) {
	return s.tables, nil
}

// Document is the JSON layout of a rules file and of the Redis payload.
type Document struct {
	Version int             `json:"version"`
	Tables  discount.Tables `json:"tables"`
}

const documentVersion = 1

// Decode parses a rules document and validates its tables.
func Decode(r io.Reader) (discount.Tables, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return discount.Tables{}, fmt.Errorf("decode rules: %w", err)
	}
	if doc.Version != 0 && doc.Version != documentVersion {
		return discount.Tables{}, fmt.Errorf("decode rules: unsupported version %d", doc.Version)
	}
	if err := doc.Tables.Validate(); err != nil {
		return discount.Tables{}, fmt.Errorf("decode rules: %w", err)
	}
	return doc.Tables, nil
}

// Encode writes tables as an indented rules document.
func Encode(w io.Writer, tables discount.Tables) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Document{Version: documentVersion, Tables: tables})
}

// LoadFile reads a rules document from path.
func LoadFile(path string) (discount.Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return discount.Tables{}, fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// File re-reads a rules document on every Load so edits apply without a restart.
type File struct {
	Path string
}

// Load implements Source.
func (f File) Load(context.Context) (discount.Tables, error) {
	return LoadFile(f.Path)
}
