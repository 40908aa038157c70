package modelindex

import (
	"context"
	"encoding/json"
)

// AddSource records that a model was obtained from sourceURL, replacing
// any existing row for the same (model_hash, source_url) pair so
// metadata stays current on re-download.
func (s *Store) AddSource(ctx context.Context, modelHash, sourceType, sourceURL string, metadata map[string]string) error {
	encoded, err := encodeMetadata(metadata)
	if err != nil {
		return wrapExec(err, "encode add_source metadata", nil)
	}
	query, args, err := s.sb.
		Insert("model_sources").
		Columns("model_hash", "source_type", "source_url", "metadata").
		Values(modelHash, sourceType, sourceURL, encoded).
		Suffix("ON CONFLICT(model_hash, source_url) DO UPDATE SET source_type = excluded.source_type, metadata = excluded.metadata").
		ToSql()
	if err != nil {
		return wrapExec(err, "build add_source", nil)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return wrapExec(err, "add_source", map[string]any{"source_url": sourceURL})
	}
	return nil
}

// FindBySourceURL returns every source row recorded for sourceURL —
// normally at most one, but a URL could in principle be re-hosted under
// a different hash over time, so this returns all matches.
func (s *Store) FindBySourceURL(ctx context.Context, sourceURL string) ([]Source, error) {
	query, args, err := s.sb.
		Select("id", "model_hash", "source_type", "source_url", "metadata").
		From("model_sources").
		Where("source_url = ?", sourceURL).
		ToSql()
	if err != nil {
		return nil, wrapExec(err, "build find_by_source_url", nil)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapExec(err, "find_by_source_url", map[string]any{"source_url": sourceURL})
	}
	defer rows.Close()

	var out []Source
	for rows.Next() {
		var src Source
		var metadata *string
		if err := rows.Scan(&src.ID, &src.ModelHash, &src.SourceType, &src.SourceURL, &metadata); err != nil {
			return nil, wrapExec(err, "scan find_by_source_url", nil)
		}
		src.Metadata, err = decodeMetadata(metadata)
		if err != nil {
			return nil, wrapExec(err, "decode find_by_source_url metadata", nil)
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

func encodeMetadata(metadata map[string]string) (*string, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func decodeMetadata(raw *string) (map[string]string, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	var metadata map[string]string
	if err := json.Unmarshal([]byte(*raw), &metadata); err != nil {
		return nil, err
	}
	return metadata, nil
}
