// CLAUDE:SUMMARY SQLite gazetteer mapping place names to component labels (city, state, country...), built by the importer and read by the local model.
package model

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/hazyhaar/touchstone-postal/pkg/dict"

	_ "modernc.org/sqlite"
)

// GazetteerFile is the gazetteer file name inside a country data directory.
const GazetteerFile = "gazetteer.db"

const gazetteerSchema = `CREATE TABLE IF NOT EXISTS places (
	name  TEXT NOT NULL,
	label TEXT NOT NULL,
	rank  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (name, label)
)`

// Place is one gazetteer row. Higher rank wins when a name carries several labels.
type Place struct {
	Name  string
	Label string
	Rank  int64
}

// Gazetteer wraps the places table of a gazetteer.db file.
type Gazetteer struct {
	db   *sql.DB
	path string
}

// OpenGazetteer opens an existing gazetteer read-only.
func OpenGazetteer(path string) (*Gazetteer, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open gazetteer: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=query_only(1)")
	if err != nil {
		return nil, fmt.Errorf("open gazetteer: %w", err)
	}
	g := &Gazetteer{db: db, path: path}
	if _, err := g.Count(); err != nil {
		db.Close()
		return nil, fmt.Errorf("gazetteer %s: %w", path, err)
	}
	return g, nil
}

// CreateGazetteer opens (or creates) a writable gazetteer at path.
func CreateGazetteer(path string) (*Gazetteer, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("create gazetteer: %w", err)
	}
	if _, err := db.Exec(gazetteerSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create places table: %w", err)
	}
	return &Gazetteer{db: db, path: path}, nil
}

// Close closes the underlying database.
func (g *Gazetteer) Close() error {
	return g.db.Close()
}

// Path returns the file the gazetteer was opened from.
func (g *Gazetteer) Path() string {
	return g.path
}

// Insert upserts places in a single transaction. Names are stored under
// PlaceKey; an existing (name, label) pair keeps the higher rank.
func (g *Gazetteer) Insert(ctx context.Context, places []Place) (int, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO places (name, label, rank) VALUES (?, ?, ?)
		ON CONFLICT(name, label) DO UPDATE SET rank = max(rank, excluded.rank)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, p := range places {
		key := PlaceKey(p.Name)
		if key == "" || p.Label == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, key, p.Label, p.Rank); err != nil {
			return n, fmt.Errorf("insert %q: %w", p.Name, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return n, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// Labels returns the labels known for name, highest rank first.
func (g *Gazetteer) Labels(name string) ([]string, error) {
	key := PlaceKey(name)
	if key == "" {
		return nil, nil
	}
	rows, err := g.db.Query(`SELECT label FROM places WHERE name = ? ORDER BY rank DESC, label`, key)
	if err != nil {
		return nil, fmt.Errorf("query places: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("scan place: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// Count returns the number of rows in the places table.
func (g *Gazetteer) Count() (int, error) {
	var n int
	if err := g.db.QueryRow(`SELECT COUNT(*) FROM places`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// PlaceKey is the lookup form of a place name: folded, accent-free, single-spaced.
func PlaceKey(name string) string {
	return strings.Join(strings.Fields(dict.NormalizeFold(name)), " ")
}
