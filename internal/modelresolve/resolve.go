// Package modelresolve resolves a single workflow model reference (a
// widget value on a loader node) to an indexed model, trying each
// strategy in the spec's priority order and stopping at the first that
// produces exactly one candidate.
package modelresolve

import (
	"context"
	"path"
	"strings"

	"github.com/comfyhub-org/comfygit/internal/modelindex"
	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

// MatchType records which strategy produced a resolution, or why none
// did.
type MatchType string

const (
	MatchPrevious        MatchType = "previous"
	MatchExact           MatchType = "exact"
	MatchReconstructed   MatchType = "reconstructed"
	MatchCaseInsensitive MatchType = "case_insensitive"
	MatchFilename        MatchType = "filename"
	MatchAmbiguous       MatchType = "ambiguous"
	MatchNotFound        MatchType = "not_found"
	MatchUserConfirmed   MatchType = "user_confirmed"
)

// Reference is one model widget found on a workflow node.
type Reference struct {
	NodeID      string
	NodeType    string
	WidgetIndex int
	WidgetValue string
}

// Resolution is the outcome of resolving a Reference: either a single
// Model at some Confidence, or — for MatchAmbiguous — the full
// Candidates list left for a selection policy or interactive strategy.
type Resolution struct {
	Reference  Reference
	MatchType  MatchType
	Confidence float64
	Model      *modelindex.Model
	Candidates []modelindex.LocationWithModel
}

// Index is the subset of the model index's store that the resolver
// needs; kept narrow so tests can fake it without a real database.
type Index interface {
	GetModel(ctx context.Context, hash string) (*modelindex.Model, error)
	FindByExactPath(ctx context.Context, relativePath string) (*modelindex.LocationWithModel, error)
	FindByExactPathCaseInsensitive(ctx context.Context, relativePath string) ([]modelindex.LocationWithModel, error)
	FindByFilename(ctx context.Context, substring string) ([]modelindex.LocationWithModel, error)
}

// Resolve applies the five-strategy chain for a single reference.
// previousHash is the hash this (node_id, widget_index) resolved to
// last time, if the manifest already has an entry for it; pass "" when
// there is none. Resolve never mutates the index.
func Resolve(ctx context.Context, ref Reference, idx Index, previousHash string) (Resolution, error) {
	if previousHash != "" {
		model, err := idx.GetModel(ctx, previousHash)
		if err == nil {
			return Resolution{Reference: ref, MatchType: MatchPrevious, Confidence: 1.0, Model: model}, nil
		}
		if !xerrors.Is(err, xerrors.KindModelNotFound) {
			return Resolution{}, err
		}
	}

	if ref.WidgetValue == "" {
		return Resolution{Reference: ref, MatchType: MatchNotFound}, nil
	}

	if lm, err := idx.FindByExactPath(ctx, ref.WidgetValue); err == nil {
		return Resolution{Reference: ref, MatchType: MatchExact, Confidence: 1.0, Model: &lm.Model}, nil
	} else if !xerrors.Is(err, xerrors.KindModelNotFound) {
		return Resolution{}, err
	}

	if base, ok := LoaderBaseDir(ref.NodeType); ok {
		for _, candidate := range reconstructedPaths(base, ref.WidgetValue) {
			lm, err := idx.FindByExactPath(ctx, candidate)
			if err == nil {
				return Resolution{Reference: ref, MatchType: MatchReconstructed, Confidence: 0.9, Model: &lm.Model}, nil
			}
			if !xerrors.Is(err, xerrors.KindModelNotFound) {
				return Resolution{}, err
			}
		}
	}

	ciMatches, err := idx.FindByExactPathCaseInsensitive(ctx, ref.WidgetValue)
	if err != nil {
		return Resolution{}, err
	}
	if len(ciMatches) == 1 {
		return Resolution{Reference: ref, MatchType: MatchCaseInsensitive, Confidence: 0.8, Model: &ciMatches[0].Model}, nil
	}

	filename := path.Base(ref.WidgetValue)
	filenameMatches, err := idx.FindByFilename(ctx, filename)
	if err != nil {
		return Resolution{}, err
	}
	switch len(filenameMatches) {
	case 0:
		return Resolution{Reference: ref, MatchType: MatchNotFound}, nil
	case 1:
		return Resolution{Reference: ref, MatchType: MatchFilename, Confidence: 0.7, Model: &filenameMatches[0].Model}, nil
	default:
		return Resolution{Reference: ref, MatchType: MatchAmbiguous, Candidates: filenameMatches}, nil
	}
}

// reconstructedPaths builds the candidate relative paths to try for a
// known loader's base directory: the widget value prefixed with the
// base, and — when the widget value already carries the base as a
// prefix (some workflows store the full relative path even for
// standard loaders) — the value with that prefix stripped instead.
func reconstructedPaths(base, widgetValue string) []string {
	candidates := []string{path.Join(base, widgetValue)}
	if strings.HasPrefix(widgetValue, base) {
		candidates = append(candidates, strings.TrimPrefix(widgetValue, base))
	}
	return candidates
}
