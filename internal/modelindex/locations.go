package modelindex

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

// AddLocation records that a model currently lives at relativePath,
// replacing any prior location row for that path (relative_path is
// unique: a path can only ever point at one model at a time).
func (s *Store) AddLocation(ctx context.Context, modelHash, relativePath, filename string, mtime time.Time) error {
	now := formatTime(time.Now())
	query, args, err := s.sb.
		Insert("model_locations").
		Columns("model_hash", "relative_path", "filename", "mtime", "last_seen").
		Values(modelHash, relativePath, filename, formatTime(mtime), now).
		Suffix("ON CONFLICT(relative_path) DO UPDATE SET model_hash = excluded.model_hash, filename = excluded.filename, mtime = excluded.mtime, last_seen = excluded.last_seen").
		ToSql()
	if err != nil {
		return wrapExec(err, "build add_location", nil)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return wrapExec(err, "add_location", map[string]any{"relative_path": relativePath})
	}
	return nil
}

// RemoveLocation deletes the location row for relativePath, if any.
func (s *Store) RemoveLocation(ctx context.Context, relativePath string) error {
	query, args, err := s.sb.Delete("model_locations").Where("relative_path = ?", relativePath).ToSql()
	if err != nil {
		return wrapExec(err, "build remove_location", nil)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return wrapExec(err, "remove_location", map[string]any{"relative_path": relativePath})
	}
	return nil
}

// CleanStaleLocations removes every location row whose relative_path is
// under baseDir but is not present in stillExists, returning the
// relative paths that were removed. stillExists is supplied by the
// caller (a filesystem walk) rather than touched here, keeping this
// function's behavior purely about reconciling the index against a
// known-good listing.
func (s *Store) CleanStaleLocations(ctx context.Context, baseDir string, stillExists map[string]bool) ([]string, error) {
	query, args, err := s.sb.Select("relative_path").
		From("model_locations").
		Where("relative_path LIKE ?", baseDir+"%").
		ToSql()
	if err != nil {
		return nil, wrapExec(err, "build clean_stale_locations select", nil)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapExec(err, "clean_stale_locations select", map[string]any{"base_dir": baseDir})
	}
	var stale []string
	for rows.Next() {
		var relPath string
		if err := rows.Scan(&relPath); err != nil {
			rows.Close()
			return nil, wrapExec(err, "scan clean_stale_locations", nil)
		}
		if !stillExists[relPath] {
			stale = append(stale, relPath)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, wrapExec(err, "iterate clean_stale_locations", nil)
	}
	rows.Close()

	for _, relPath := range stale {
		if err := s.RemoveLocation(ctx, relPath); err != nil {
			return nil, err
		}
	}
	return stale, nil
}

// LocationWithModel pairs a location with the model it points at, for
// lookups that want both in one round trip.
type LocationWithModel struct {
	Location Location
	Model    Model
}

const locationModelColumns = "l.id, l.model_hash, l.relative_path, l.filename, l.mtime, l.last_seen, " +
	"m.hash, m.file_size, m.blake3_hash, m.sha256_hash, m.first_seen"

func scanLocationWithModel(row scannable) (*LocationWithModel, error) {
	var lm LocationWithModel
	var mtime, lastSeen, firstSeen string
	var blake3, sha256 sql.NullString
	err := row.Scan(
		&lm.Location.ID, &lm.Location.ModelHash, &lm.Location.RelativePath, &lm.Location.Filename, &mtime, &lastSeen,
		&lm.Model.Hash, &lm.Model.FileSize, &blake3, &sha256, &firstSeen,
	)
	if err != nil {
		return nil, err
	}
	lm.Location.Mtime = parseTime(mtime)
	lm.Location.LastSeen = parseTime(lastSeen)
	lm.Model.FirstSeen = parseTime(firstSeen)
	if blake3.Valid {
		lm.Model.Blake3 = &blake3.String
	}
	if sha256.Valid {
		lm.Model.SHA256 = &sha256.String
	}
	return &lm, nil
}

// FindByExactPath looks up the model currently recorded at relativePath.
func (s *Store) FindByExactPath(ctx context.Context, relativePath string) (*LocationWithModel, error) {
	query := "SELECT " + locationModelColumns +
		" FROM model_locations l JOIN models m ON m.hash = l.model_hash WHERE l.relative_path = ?"
	row := s.db.QueryRowContext(ctx, query, relativePath)
	lm, err := scanLocationWithModel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, xerrors.Newf(xerrors.KindModelNotFound, map[string]any{"relative_path": relativePath},
			"no model tracked at %q", relativePath)
	}
	if err != nil {
		return nil, wrapExec(err, "scan find_by_exact_path", map[string]any{"relative_path": relativePath})
	}
	return lm, nil
}

// FindByFilename returns every location whose filename contains
// substring, joined with its model.
func (s *Store) FindByFilename(ctx context.Context, substring string) ([]LocationWithModel, error) {
	query := "SELECT " + locationModelColumns +
		" FROM model_locations l JOIN models m ON m.hash = l.model_hash WHERE l.filename LIKE ?"
	rows, err := s.db.QueryContext(ctx, query, "%"+substring+"%")
	if err != nil {
		return nil, wrapExec(err, "find_by_filename", map[string]any{"substring": substring})
	}
	defer rows.Close()

	var out []LocationWithModel
	for rows.Next() {
		lm, err := scanLocationWithModel(rows)
		if err != nil {
			return nil, wrapExec(err, "scan find_by_filename", nil)
		}
		out = append(out, *lm)
	}
	return out, rows.Err()
}

// FindLocationsByHash returns every location recorded for modelHash, for
// callers that already have a hash (e.g. from a source-URL lookup) and
// need to know where that model currently lives on disk.
func (s *Store) FindLocationsByHash(ctx context.Context, modelHash string) ([]Location, error) {
	query := "SELECT id, model_hash, relative_path, filename, mtime, last_seen " +
		"FROM model_locations WHERE model_hash = ?"
	rows, err := s.db.QueryContext(ctx, query, modelHash)
	if err != nil {
		return nil, wrapExec(err, "find_locations_by_hash", map[string]any{"model_hash": modelHash})
	}
	defer rows.Close()

	var out []Location
	for rows.Next() {
		var loc Location
		var mtime, lastSeen string
		if err := rows.Scan(&loc.ID, &loc.ModelHash, &loc.RelativePath, &loc.Filename, &mtime, &lastSeen); err != nil {
			return nil, wrapExec(err, "scan find_locations_by_hash", nil)
		}
		loc.Mtime = parseTime(mtime)
		loc.LastSeen = parseTime(lastSeen)
		out = append(out, loc)
	}
	return out, rows.Err()
}

// FindByExactPathCaseInsensitive is FindByExactPath with a
// case-folded comparison, used by the model resolver's
// case-insensitive strategy when the exact-cased path misses.
func (s *Store) FindByExactPathCaseInsensitive(ctx context.Context, relativePath string) ([]LocationWithModel, error) {
	query := "SELECT " + locationModelColumns +
		" FROM model_locations l JOIN models m ON m.hash = l.model_hash WHERE LOWER(l.relative_path) = LOWER(?)"
	rows, err := s.db.QueryContext(ctx, query, relativePath)
	if err != nil {
		return nil, wrapExec(err, "find_by_exact_path_case_insensitive", map[string]any{"relative_path": relativePath})
	}
	defer rows.Close()

	var out []LocationWithModel
	for rows.Next() {
		lm, err := scanLocationWithModel(rows)
		if err != nil {
			return nil, wrapExec(err, "scan find_by_exact_path_case_insensitive", nil)
		}
		out = append(out, *lm)
	}
	return out, rows.Err()
}
