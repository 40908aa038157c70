package modelindex

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/comfyhub-org/comfygit/internal/ids"
	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

// EnsureModel records a model under hash if it isn't already tracked,
// and backfills blake3/sha256 on an existing row when a value is
// supplied that it was previously missing. It never overwrites a
// stronger hash already on record.
func (s *Store) EnsureModel(ctx context.Context, hash string, fileSize int64, blake3, sha256 *string) (*Model, error) {
	existing, err := s.GetModel(ctx, hash)
	if err != nil && !xerrors.Is(err, xerrors.KindModelNotFound) {
		return nil, err
	}
	if existing == nil {
		query, args, err := s.sb.Insert("models").
			Columns("hash", "file_size", "blake3_hash", "sha256_hash", "first_seen").
			Values(hash, fileSize, blake3, sha256, formatTime(time.Now())).
			ToSql()
		if err != nil {
			return nil, wrapExec(err, "build ensure_model insert", nil)
		}
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return nil, wrapExec(err, "ensure_model insert", map[string]any{"hash": hash})
		}
		return s.GetModel(ctx, hash)
	}

	updates := map[string]any{}
	if blake3 != nil && existing.Blake3 == nil {
		updates["blake3_hash"] = *blake3
	}
	if sha256 != nil && existing.SHA256 == nil {
		updates["sha256_hash"] = *sha256
	}
	if len(updates) == 0 {
		return existing, nil
	}
	builder := s.sb.Update("models")
	for col, val := range updates {
		builder = builder.Set(col, val)
	}
	query, args, err := builder.Where("hash = ?", hash).ToSql()
	if err != nil {
		return nil, wrapExec(err, "build ensure_model update", nil)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, wrapExec(err, "ensure_model update", map[string]any{"hash": hash})
	}
	return s.GetModel(ctx, hash)
}

// GetModel looks a model up by its exact hash. Returns a
// xerrors.KindModelNotFound error if no such model is tracked.
func (s *Store) GetModel(ctx context.Context, hash string) (*Model, error) {
	query, args, err := s.sb.Select("hash", "file_size", "blake3_hash", "sha256_hash", "first_seen").
		From("models").Where("hash = ?", hash).ToSql()
	if err != nil {
		return nil, wrapExec(err, "build get_model", nil)
	}
	row := s.db.QueryRowContext(ctx, query, args...)
	m, err := scanModel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, xerrors.Newf(xerrors.KindModelNotFound, map[string]any{"hash": hash}, "model %q not found", hash)
	}
	if err != nil {
		return nil, wrapExec(err, "scan get_model", map[string]any{"hash": hash})
	}
	return m, nil
}

// FindModelByHash returns every model whose hash, blake3, or sha256
// starts with prefix — a short hex prefix is often all a user types.
func (s *Store) FindModelByHash(ctx context.Context, prefix string) ([]Model, error) {
	like := prefix + "%"
	query, args, err := s.sb.Select("hash", "file_size", "blake3_hash", "sha256_hash", "first_seen").
		From("models").
		Where("hash LIKE ? OR blake3_hash LIKE ? OR sha256_hash LIKE ?", like, like, like).
		ToSql()
	if err != nil {
		return nil, wrapExec(err, "build find_model_by_hash", nil)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapExec(err, "find_model_by_hash", map[string]any{"prefix": prefix})
	}
	defer rows.Close()

	var out []Model
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, wrapExec(err, "scan find_model_by_hash", nil)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanModel(row scannable) (*Model, error) {
	var m Model
	var blake3, sha256 sql.NullString
	var firstSeen string
	if err := row.Scan(&m.Hash, &m.FileSize, &blake3, &sha256, &firstSeen); err != nil {
		return nil, err
	}
	if blake3.Valid {
		m.Blake3 = &blake3.String
	}
	if sha256.Valid {
		m.SHA256 = &sha256.String
	}
	m.FirstSeen = parseTime(firstSeen)
	return &m, nil
}

// ComputeShortHash, ComputeBlake3, and ComputeSha256 re-export the
// filesystem hashing primitives under the model index's vocabulary, so
// callers driving ensure_model/add_source flows don't need to import
// internal/ids directly.
func ComputeShortHash(path string) (string, error) { return ids.ShortHash(path) }
func ComputeBlake3(path string) (string, error)    { return ids.FullBlake3(path) }
func ComputeSha256(path string) (string, error)    { return ids.FullSHA256(path) }
