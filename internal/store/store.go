// Package store persists parsed schema snapshots in SQLite so two runs
// of the same source can be compared over time. Each snapshot carries a
// label, the dialect it came from, the encoded tree with its presence
// set, and a content fingerprint used to skip duplicate saves.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/SchemaScope/core/errors"
	"github.com/FocuswithJustin/SchemaScope/core/sqlite"
	"github.com/FocuswithJustin/SchemaScope/core/typetree"
	"github.com/FocuswithJustin/SchemaScope/internal/cache"
)

// snapshotCacheSize bounds the decoded snapshots held in memory.
// Snapshots are immutable once written, so no TTL is needed.
const snapshotCacheSize = 64

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
	id          TEXT PRIMARY KEY,
	label       TEXT NOT NULL,
	dialect     TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	tree        TEXT NOT NULL,
	required    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_label ON snapshots(label, created_at);
CREATE INDEX IF NOT EXISTS idx_snapshots_fingerprint ON snapshots(label, fingerprint);
`

// Snapshot is one stored schema.
type Snapshot struct {
	ID          string
	Label       string
	Dialect     string
	Fingerprint string
	CreatedAt   time.Time
	Root        typetree.Object
	Required    typetree.PathSet
}

// Store wraps the snapshot database.
type Store struct {
	db   *sql.DB
	byID *cache.LRU[string, *Snapshot]
}

// Open opens (creating if needed) a snapshot store at path.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.NewIO("migrate", path, err)
	}
	return &Store{
		db:   db,
		byID: cache.NewLRU[string, *Snapshot](snapshotCacheSize, 0),
	}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a snapshot and returns it with ID, fingerprint, and
// timestamp filled in. If the latest snapshot under the same label has
// the same fingerprint, that one is returned instead of writing a
// duplicate.
func (s *Store) Save(ctx context.Context, label, dialect string, root typetree.Object, required typetree.PathSet) (*Snapshot, error) {
	fp := typetree.Fingerprint(root)

	if prev, err := s.latest(ctx, label); err == nil {
		if prev.Fingerprint == fp && samePaths(prev.Required, required) {
			return prev, nil
		}
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	treeJSON, err := typetree.MarshalNode(root)
	if err != nil {
		return nil, err
	}
	if required == nil {
		required = typetree.NewPathSet()
	}
	reqJSON, err := json.Marshal(required)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		ID:          uuid.NewString(),
		Label:       label,
		Dialect:     dialect,
		Fingerprint: fp,
		CreatedAt:   time.Now().UTC(),
		Root:        root,
		Required:    required,
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, label, dialect, fingerprint, created_at, tree, required)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Label, snap.Dialect, snap.Fingerprint,
		snap.CreatedAt.Format(time.RFC3339Nano), string(treeJSON), string(reqJSON))
	if err != nil {
		return nil, errors.Wrap(err, "store: insert snapshot")
	}
	s.byID.Put(snap.ID, snap)
	return snap, nil
}

// Load fetches a snapshot by ID. Snapshots are immutable, so decoded
// ones are served from an in-memory cache on repeat loads.
func (s *Store) Load(ctx context.Context, id string) (*Snapshot, error) {
	if snap, ok := s.byID.Get(id); ok {
		return snap, nil
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, label, dialect, fingerprint, created_at, tree, required
		 FROM snapshots WHERE id = ?`, id)
	snap, err := scanSnapshot(row)
	if err != nil {
		return nil, err
	}
	s.byID.Put(snap.ID, snap)
	return snap, nil
}

// Latest fetches the most recent snapshot under a label.
func (s *Store) Latest(ctx context.Context, label string) (*Snapshot, error) {
	return s.latest(ctx, label)
}

func (s *Store) latest(ctx context.Context, label string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, label, dialect, fingerprint, created_at, tree, required
		 FROM snapshots WHERE label = ? ORDER BY created_at DESC LIMIT 1`, label)
	snap, err := scanSnapshot(row)
	if err != nil {
		return nil, err
	}
	s.byID.Put(snap.ID, snap)
	return snap, nil
}

// List returns snapshot metadata, newest first, without decoding trees.
// An empty label lists everything.
func (s *Store) List(ctx context.Context, label string) ([]Snapshot, error) {
	query := `SELECT id, label, dialect, fingerprint, created_at
		FROM snapshots ORDER BY created_at DESC`
	args := []any{}
	if label != "" {
		query = `SELECT id, label, dialect, fingerprint, created_at
			FROM snapshots WHERE label = ? ORDER BY created_at DESC`
		args = append(args, label)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "store: list snapshots")
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var created string
		if err := rows.Scan(&snap.ID, &snap.Label, &snap.Dialect, &snap.Fingerprint, &created); err != nil {
			return nil, errors.Wrap(err, "store: scan snapshot")
		}
		snap.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, snap)
	}
	return out, rows.Err()
}

func samePaths(a, b typetree.PathSet) bool {
	as, bs := a.Sorted(), b.Sorted()
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var snap Snapshot
	var created, treeJSON, reqJSON string
	err := row.Scan(&snap.ID, &snap.Label, &snap.Dialect, &snap.Fingerprint, &created, &treeJSON, &reqJSON)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "store: scan snapshot")
	}
	snap.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)

	node, err := typetree.UnmarshalNode([]byte(treeJSON))
	if err != nil {
		return nil, errors.Wrap(err, "store: decode tree")
	}
	root, ok := node.(typetree.Object)
	if !ok {
		return nil, errors.Wrap(errors.ErrInvalidInput, "store: snapshot root is not an object")
	}
	snap.Root = root
	if err := json.Unmarshal([]byte(reqJSON), &snap.Required); err != nil {
		return nil, errors.Wrap(err, "store: decode presence set")
	}
	return &snap, nil
}
