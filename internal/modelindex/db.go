// Package modelindex implements the content-addressed model index: a
// local sqlite database tracking every model file ever seen by hash,
// where it currently lives on disk, and where it was downloaded from.
package modelindex

import (
	"context"
	"database/sql"
	"embed"

	"github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"

	"github.com/comfyhub-org/comfygit/internal/logging"
	"github.com/comfyhub-org/comfygit/internal/xerrors"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// CurrentSchemaVersion is the version this build expects schema_info to
// hold. A mismatch (an index built by an older or newer comfygit) means
// the schema is rebuilt from scratch rather than rolled forward: the
// index is a local cache of filesystem state, not a system of record, so
// losing it costs a rescan, not data.
const CurrentSchemaVersion = 1

// Store is the model index's sqlite-backed store.
type Store struct {
	db *sql.DB
	sb squirrel.StatementBuilderType
}

// Open opens (creating if necessary) the sqlite database at path,
// applies migrations, and rebuilds the schema if its recorded version
// doesn't match CurrentSchemaVersion.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, xerrors.New(xerrors.KindRegistryUnavailable, err, map[string]any{"path": path})
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, xerrors.New(xerrors.KindRegistryUnavailable, err, map[string]any{"path": path})
	}

	s := &Store{db: db, sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logging.FromContext(ctx).With("path", path).Info("model index opened")
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return xerrors.New(xerrors.KindRegistryUnavailable, err, nil)
	}

	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return xerrors.New(xerrors.KindRegistryUnavailable, err, map[string]any{"direction": "up"})
	}

	version, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}
	if version == CurrentSchemaVersion {
		return nil
	}

	logging.FromContext(ctx).With("found", version, "expected", CurrentSchemaVersion).
		Warn("model index schema version mismatch, rebuilding")

	if err := goose.DownToContext(ctx, s.db, "migrations", 0); err != nil {
		return xerrors.New(xerrors.KindRegistryUnavailable, err, map[string]any{"direction": "down"})
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return xerrors.New(xerrors.KindRegistryUnavailable, err, map[string]any{"direction": "up", "rebuild": true})
	}

	version, err = s.schemaVersion(ctx)
	if err != nil {
		return err
	}
	if version != CurrentSchemaVersion {
		return xerrors.Newf(xerrors.KindRegistryUnavailable, map[string]any{"found": version},
			"schema rebuild did not converge on version %d", CurrentSchemaVersion)
	}
	return nil
}

func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_info LIMIT 1").Scan(&version)
	if err != nil {
		return 0, xerrors.New(xerrors.KindRegistryUnavailable, err, nil)
	}
	return version, nil
}

func wrapExec(err error, op string, args map[string]any) error {
	if err == nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}
	args["op"] = op
	return xerrors.New(xerrors.KindRegistryUnavailable, err, args)
}

