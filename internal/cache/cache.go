// Package cache implements the AST cache of spec.md §4.8: an
// in-memory, process-lifetime memoization of parsed trees keyed by
// source-content hash, with an optional on-disk tier. The disk tier
// is backed by modernc.org/sqlite (already a real dependency of the
// teacher) rather than the literal one-file-per-hash scheme spec.md
// sketches, keeping the content-addressed/shared-across-paths/
// cleared-on-close invariants while exercising a library already in
// the corpus's dependency graph.
package cache

import (
	"bytes"
	"crypto/sha1"
	"database/sql"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arborist-lang/arborist/internal/ast"
	"github.com/arborist-lang/arborist/internal/diagnostics"
	"github.com/arborist-lang/arborist/internal/token"

	_ "modernc.org/sqlite"
)

// Entry pairs a parsed module (or a failed-parse sentinel) with the
// content hash it was parsed from. A cache hit of a failure sentinel
// returns immediately, same as a successful hit (spec.md §4.8).
type Entry struct {
	Sha1   string
	Module *ast.Module // nil on parse failure
	Err    error
}

// Cache is the process-wide AST cache. The in-memory tier is always
// present; the disk tier is opened only when a cache directory is
// configured.
type Cache struct {
	mem map[string]*Entry

	db      *sql.DB
	dbPath  string
	enabled bool
}

// New opens the cache. dir == "" disables the disk tier entirely
// (in-memory only); otherwise a sqlite database file is created
// inside dir.
func New(dir string) (*Cache, error) {
	c := &Cache{mem: make(map[string]*Entry)}
	if dir == "" {
		return c, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create cache dir: %w", err)
	}
	path := filepath.Join(dir, "asts.sqlite")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS asts (sha1 TEXT PRIMARY KEY, ok INTEGER, blob BLOB, parse_err TEXT)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create table: %w", err)
	}
	c.db = db
	c.dbPath = path
	c.enabled = true
	return c, nil
}

// Hash returns the content hash Load/Lookup key on.
func Hash(src []byte) string {
	sum := sha1.Sum(src)
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached entry for a content hash, checking the
// in-memory tier first, then disk.
func (c *Cache) Lookup(hash string) (*Entry, bool) {
	if e, ok := c.mem[hash]; ok {
		return e, true
	}
	if !c.enabled {
		return nil, false
	}
	row := c.db.QueryRow(`SELECT ok, blob, parse_err FROM asts WHERE sha1 = ?`, hash)
	var ok int
	var blob []byte
	var parseErr string
	if err := row.Scan(&ok, &blob, &parseErr); err != nil {
		return nil, false
	}
	e := &Entry{Sha1: hash}
	if ok == 0 {
		e.Err = fmt.Errorf("%s", parseErr)
		c.mem[hash] = e
		return e, true
	}
	m, err := decodeModule(blob)
	if err != nil {
		// Corrupt disk entry: treat as a miss so Load re-parses, per
		// spec.md §7's "cache I/O failure is logged, treated as a
		// miss" rule.
		return nil, false
	}
	e.Module = m
	c.mem[hash] = e
	return e, true
}

// Store records a parse result under hash in both tiers.
func (c *Cache) Store(hash string, module *ast.Module, parseErr error) *Entry {
	e := &Entry{Sha1: hash, Module: module, Err: parseErr}
	c.mem[hash] = e
	if !c.enabled {
		return e
	}
	if parseErr != nil {
		c.db.Exec(`INSERT OR REPLACE INTO asts (sha1, ok, blob, parse_err) VALUES (?, 0, NULL, ?)`, hash, parseErr.Error())
		return e
	}
	blob, err := encodeModule(module)
	if err != nil {
		return e
	}
	c.db.Exec(`INSERT OR REPLACE INTO asts (sha1, ok, blob, parse_err) VALUES (?, 1, ?, '')`, hash, blob)
	return e
}

// Load resolves file through the cache: a content-hash hit (either
// tier) is returned immediately, including a cached failure; a miss
// parses src with fe and stores the result under its hash before
// returning it, then stamps file back onto the module root (spec.md
// §9(c): two paths with identical content share one deserialized
// tree and each caller must restamp its own path).
func (c *Cache) Load(file string, src []byte, fe Frontend) (*ast.Module, error) {
	hash := Hash(src)
	if e, ok := c.Lookup(hash); ok {
		if e.Err != nil {
			return nil, e.Err
		}
		e.Module.SetFile(file)
		e.Module.Sha1 = hash
		return e.Module, nil
	}
	m, err := fe.Parse(file, src)
	e := c.Store(hash, m, err)
	if e.Err != nil {
		return nil, e.Err
	}
	m.Sha1 = hash
	return m, nil
}

// Frontend is the minimal parsing contract the cache depends on,
// satisfied by frontend.Frontend without importing that package
// (which otherwise registers every concrete frontend and would
// needlessly widen this package's dependency surface).
type Frontend interface {
	Parse(file string, src []byte) (*ast.Module, error)
}

// Close releases the disk tier and, per Design Note (c), clears it:
// callers that want the cache to persist across runs must not call
// Close.
func (c *Cache) Close() error {
	if !c.enabled {
		return nil
	}
	c.db.Close()
	c.enabled = false
	return os.Remove(c.dbPath)
}

func encodeModule(m *ast.Module) ([]byte, error) {
	var buf bytes.Buffer
	w := toWire(m)
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeModule(blob []byte) (*ast.Module, error) {
	var w wireNode
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&w); err != nil {
		return nil, err
	}
	root := fromWire(&w)
	m, ok := root.(*ast.Module)
	if !ok {
		return nil, fmt.Errorf("cache: decoded root is not a Module (%T)", root)
	}
	ast.SetParents(m)
	return m, nil
}

// ParseFailureDiagnostic wraps a cached parse error as a Diagnostic
// for callers that need to report it alongside analysis diagnostics.
func ParseFailureDiagnostic(file string, err error) *diagnostics.Diagnostic {
	return diagnostics.New(diagnostics.ParseFailure, file, token.Position{}, err.Error())
}
