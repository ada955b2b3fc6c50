package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Database is the set of input tables a resilience run reads, with their
// content embedded so runs are reproducible offline.
type Database struct {
	Sources []*File
	Loaded  time.Time
}

func NewDatabase() *Database {
	return &Database{}
}

func LoadIfExists(dbFile string) (db *Database, found bool, err error) {
	data, err := os.ReadFile(dbFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}

	db = new(Database)
	if err := json.Unmarshal(data, db); err != nil {
		return nil, false, fmt.Errorf("could not parse database %s: %w", dbFile, err)
	}

	return db, true, nil
}

// Info logs a summary of the database and fails on duplicate sources.
func (db *Database) Info() error {
	uniqueFiles := make(map[string]bool)
	contentSize := 0

	for _, f := range db.Sources {
		key := f.URL + "#" + f.Sheet
		if uniqueFiles[key] {
			return fmt.Errorf("found duplicate source: '%s' sheet '%s'", f.URL, f.Sheet)
		}
		uniqueFiles[key] = true
		contentSize += len(f.ContentBase64)

		slog.Info("source", "role", f.Role, "title", f.Title, "sheet", f.Sheet)
	}

	slog.Info("database",
		"loaded", db.Loaded.Format(time.RFC3339),
		"unique_files", len(uniqueFiles),
		"content_size", contentSize,
	)
	return nil
}

func (db *Database) Save(dbFile string) error {
	js, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(dbFile, js, 0o644)
}

func Dump(o interface{}) error {
	js, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(js))
	return nil
}

// AddSource loads f and replaces any source with the same role.
func (db *Database) AddSource(f *File) error {
	if err := f.LoadContent(); err != nil {
		return err
	}
	for i, s := range db.Sources {
		if s.Role == f.Role {
			db.Sources[i] = f
			db.Loaded = time.Now()
			return nil
		}
	}
	db.Sources = append(db.Sources, f)
	db.Loaded = time.Now()
	return nil
}

func (db *Database) GetTableFile(role Role) (f *File, found bool) {
	for _, s := range db.Sources {
		if s.Role == role {
			return s, true
		}
	}
	return nil, false
}
