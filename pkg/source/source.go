// Package source fetches raw production records from the configured backend.
package source

import (
	"context"
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"prodreport/internal/utils"
	"prodreport/pkg/database"
	"prodreport/pkg/models"
)

// Source returns the full raw record set. Implementations page internally.
type Source interface {
	Fetch(ctx context.Context) ([]models.RawRecord, error)
}

var _ Source = (*database.SQLSource)(nil)

// Kinds accepted by New besides the database kinds.
const (
	REST = "rest"
	File = "file"
)

// Options selects and configures a Source.
type Options struct {
	Kind     string
	DSN      string
	Table    string
	URL      string
	APIKey   string
	Path     string
	PageSize int
	Progress bool
}

// New builds the Source for opts.Kind. The returned close func releases any
// connection held by the source and is never nil.
func New(opts Options) (Source, func() error, error) {
	noop := func() error { return nil }
	switch opts.Kind {
	case database.MySQL, database.Postgres, database.SQLite:
		db, err := database.Open(opts.Kind, opts.DSN)
		if err != nil {
			return nil, noop, err
		}
		src := &database.SQLSource{DB: db, Kind: opts.Kind, Table: opts.Table, PageSize: opts.PageSize, Progress: opts.Progress}
		return src, db.Close, nil
	case REST:
		if opts.URL == "" {
			return nil, noop, fmt.Errorf("rest source needs a url")
		}
		src := NewRESTSource(opts.URL, opts.Table, opts.APIKey)
		src.PageSize = opts.PageSize
		src.Progress = opts.Progress
		return src, noop, nil
	case File:
		if opts.Path == "" {
			return nil, noop, fmt.Errorf("file source needs a path")
		}
		return &FileSource{Path: opts.Path}, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown source kind %q", opts.Kind)
	}
}

// FileSource reads a JSON export: either an array of records or an object
// with the records under "data".
type FileSource struct {
	Path string
}

func (f *FileSource) Fetch(ctx context.Context) ([]models.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	records, err := parseRecords(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	utils.Log.Infof("loaded %d records from %s", len(records), f.Path)
	return records, nil
}

func parseRecords(body []byte) ([]models.RawRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid json")
	}
	root := gjson.ParseBytes(body)
	if root.IsObject() {
		root = root.Get("data")
	}
	if !root.IsArray() {
		return nil, fmt.Errorf("expected a json array of records")
	}

	items := root.Array()
	out := make([]models.RawRecord, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, fmt.Errorf("record %d is not an object", i)
		}
		raw := models.RawRecord{}
		item.ForEach(func(key, value gjson.Result) bool {
			raw[key.String()] = value.Value()
			return true
		})
		out = append(out, raw)
	}
	return out, nil
}
