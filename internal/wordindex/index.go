// apps/go-server/internal/wordindex/index.go
//
// SQLite-backed word index for the lookup service.
//
// Each row stores a word with its normalized sorted letters, normalized length
// and a 26-bit letter mask. A lookup narrows candidates in SQL (dictionary,
// length, no letters outside the query) and confirms letter counts in Go.

package wordindex

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/lettertiles/apps/go-server/internal/words"
)

// DefaultLimit caps the candidate list returned by Find.
const DefaultLimit = 10000

type Index struct{ db *sql.DB }

// Open opens the database at dsn and applies migrations.
func Open(dsn string) (*Index, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate(db, migrations); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func (x *Index) Close() error { return x.db.Close() }

// Ping checks the database connection.
func (x *Index) Ping(ctx context.Context) error { return x.db.PingContext(ctx) }

// Seed loads list into dictionary name unless it has already been seeded.
// Returns the number of words inserted.
func (x *Index) Seed(ctx context.Context, name string, list []string) (int, error) {
	var exists int
	err := x.db.QueryRowContext(ctx, `SELECT 1 FROM dictionaries WHERE name=?`, name).Scan(&exists)
	if err == nil {
		return 0, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("check dictionary %s: %w", name, err)
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO words (dict, word, sorted_word, length, mask) VALUES (?,?,?,?,?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	n := 0
	for _, w := range list {
		norm := words.Normalize(w)
		if len(norm) < words.MinLength {
			continue
		}
		res, err := stmt.ExecContext(ctx, name, w, words.SortedLetters(norm), len(norm), words.LetterMask(norm))
		if err != nil {
			return 0, fmt.Errorf("insert %q: %w", w, err)
		}
		if affected, _ := res.RowsAffected(); affected > 0 {
			n++
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO dictionaries (name, word_count) VALUES (?, ?)`, name, n); err != nil {
		return 0, fmt.Errorf("record dictionary %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	log.Info().Str("dict", name).Int("words", n).Msg("dictionary seeded")
	return n, nil
}

// Dictionaries lists seeded dictionary names, sorted.
func (x *Index) Dictionaries(ctx context.Context) ([]string, error) {
	rows, err := x.db.QueryContext(ctx, `SELECT name FROM dictionaries ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Counts reports the number of words per seeded dictionary.
func (x *Index) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := x.db.QueryContext(ctx, `SELECT name, word_count FROM dictionaries`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var (
			name string
			n    int
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, rows.Err()
}

// Find returns the words of the given dictionaries that can be spelled from
// letters, longest first then alphabetical, at most limit of them.
func (x *Index) Find(ctx context.Context, sources []string, letters string, limit int) ([]string, error) {
	norm := words.Normalize(letters)
	if len(norm) < words.MinLength || len(sources) == 0 {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	args := make([]any, 0, len(sources)+3)
	for _, s := range sources {
		args = append(args, s)
	}
	args = append(args, words.MinLength, len(norm), words.AllLetters&^words.LetterMask(norm))

	q := `SELECT DISTINCT word, sorted_word, length FROM words
	      WHERE dict IN (` + strings.TrimSuffix(strings.Repeat("?,", len(sources)), ",") + `)
	        AND length BETWEEN ? AND ?
	        AND (mask & ?) = 0
	      ORDER BY length DESC, word ASC`
	rows, err := x.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query words: %w", err)
	}
	defer rows.Close()

	pool := words.CountLetters(norm)
	out := make([]string, 0, 64)
	for rows.Next() {
		var (
			w, sorted string
			length    int
		)
		if err := rows.Scan(&w, &sorted, &length); err != nil {
			return nil, err
		}
		if !pool.Contains(words.CountLetters(sorted)) {
			continue
		}
		out = append(out, w)
		if len(out) >= limit {
			break
		}
	}
	return out, rows.Err()
}
