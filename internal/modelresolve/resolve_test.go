package modelresolve

import (
	"context"
	"testing"
	"time"

	"github.com/comfyhub-org/comfygit/internal/modelindex"
	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

// fakeIndex is a hand-rolled stub of Index, letting this package's
// tests exercise the strategy chain without a real sqlite store.
type fakeIndex struct {
	models      map[string]*modelindex.Model
	byExactPath map[string]*modelindex.LocationWithModel
	byPathFold  map[string][]modelindex.LocationWithModel
	byFilename  map[string][]modelindex.LocationWithModel
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		models:      map[string]*modelindex.Model{},
		byExactPath: map[string]*modelindex.LocationWithModel{},
		byPathFold:  map[string][]modelindex.LocationWithModel{},
		byFilename:  map[string][]modelindex.LocationWithModel{},
	}
}

func (f *fakeIndex) GetModel(_ context.Context, hash string) (*modelindex.Model, error) {
	if m, ok := f.models[hash]; ok {
		return m, nil
	}
	return nil, xerrors.Newf(xerrors.KindModelNotFound, nil, "no model %q", hash)
}

func (f *fakeIndex) FindByExactPath(_ context.Context, relativePath string) (*modelindex.LocationWithModel, error) {
	if lm, ok := f.byExactPath[relativePath]; ok {
		return lm, nil
	}
	return nil, xerrors.Newf(xerrors.KindModelNotFound, nil, "no location %q", relativePath)
}

func (f *fakeIndex) FindByExactPathCaseInsensitive(_ context.Context, relativePath string) ([]modelindex.LocationWithModel, error) {
	return f.byPathFold[relativePath], nil
}

func (f *fakeIndex) FindByFilename(_ context.Context, substring string) ([]modelindex.LocationWithModel, error) {
	return f.byFilename[substring], nil
}

func modelFor(hash string) modelindex.Model {
	return modelindex.Model{Hash: hash, FileSize: 1024, FirstSeen: time.Unix(0, 0)}
}

func TestResolve_PreviousResolutionWins(t *testing.T) {
	idx := newFakeIndex()
	idx.models["abc123"] = &modelindex.Model{Hash: "abc123"}
	idx.byExactPath["checkpoints/other.safetensors"] = &modelindex.LocationWithModel{
		Model: modelFor("zzz"),
	}

	ref := Reference{NodeID: "1", NodeType: "CheckpointLoaderSimple", WidgetValue: "checkpoints/other.safetensors"}
	res, err := Resolve(context.Background(), ref, idx, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if res.MatchType != MatchPrevious || res.Confidence != 1.0 || res.Model.Hash != "abc123" {
		t.Errorf("expected previous-resolution match on abc123, got %+v", res)
	}
}

func TestResolve_ExactPath(t *testing.T) {
	idx := newFakeIndex()
	idx.byExactPath["checkpoints/model.safetensors"] = &modelindex.LocationWithModel{Model: modelFor("hash1")}

	ref := Reference{NodeID: "1", NodeType: "CheckpointLoaderSimple", WidgetValue: "checkpoints/model.safetensors"}
	res, err := Resolve(context.Background(), ref, idx, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.MatchType != MatchExact || res.Confidence != 1.0 || res.Model.Hash != "hash1" {
		t.Errorf("expected exact-path match, got %+v", res)
	}
}

func TestResolve_ReconstructedPath(t *testing.T) {
	idx := newFakeIndex()
	idx.byExactPath["checkpoints/model.safetensors"] = &modelindex.LocationWithModel{Model: modelFor("hash2")}

	ref := Reference{NodeID: "1", NodeType: "CheckpointLoaderSimple", WidgetValue: "model.safetensors"}
	res, err := Resolve(context.Background(), ref, idx, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.MatchType != MatchReconstructed || res.Confidence != 0.9 || res.Model.Hash != "hash2" {
		t.Errorf("expected reconstructed-path match, got %+v", res)
	}
}

func TestResolve_CaseInsensitivePath(t *testing.T) {
	idx := newFakeIndex()
	idx.byPathFold["checkpoints/Model.Safetensors"] = []modelindex.LocationWithModel{
		{Model: modelFor("hash3")},
	}

	ref := Reference{NodeID: "1", NodeType: "CheckpointLoaderSimple", WidgetValue: "checkpoints/Model.Safetensors"}
	res, err := Resolve(context.Background(), ref, idx, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.MatchType != MatchCaseInsensitive || res.Confidence != 0.8 || res.Model.Hash != "hash3" {
		t.Errorf("expected case-insensitive match, got %+v", res)
	}
}

func TestResolve_FilenameOnlySingleHit(t *testing.T) {
	idx := newFakeIndex()
	idx.byFilename["model.safetensors"] = []modelindex.LocationWithModel{
		{Model: modelFor("hash4")},
	}

	ref := Reference{NodeID: "1", NodeType: "CheckpointLoaderSimple", WidgetValue: "somewhere/else/model.safetensors"}
	res, err := Resolve(context.Background(), ref, idx, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.MatchType != MatchFilename || res.Confidence != 0.7 || res.Model.Hash != "hash4" {
		t.Errorf("expected filename-only match, got %+v", res)
	}
}

func TestResolve_FilenameOnlyAmbiguous(t *testing.T) {
	idx := newFakeIndex()
	idx.byFilename["model.safetensors"] = []modelindex.LocationWithModel{
		{Model: modelFor("hash5")},
		{Model: modelFor("hash6")},
	}

	ref := Reference{NodeID: "1", NodeType: "CheckpointLoaderSimple", WidgetValue: "somewhere/model.safetensors"}
	res, err := Resolve(context.Background(), ref, idx, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.MatchType != MatchAmbiguous || len(res.Candidates) != 2 {
		t.Errorf("expected ambiguous match with 2 candidates, got %+v", res)
	}
}

func TestResolve_NotFound(t *testing.T) {
	idx := newFakeIndex()
	ref := Reference{NodeID: "1", NodeType: "CheckpointLoaderSimple", WidgetValue: "nowhere.safetensors"}
	res, err := Resolve(context.Background(), ref, idx, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.MatchType != MatchNotFound {
		t.Errorf("expected not_found, got %+v", res)
	}
}

func TestResolve_EmptyWidgetValueIsNotFound(t *testing.T) {
	ref := Reference{NodeID: "1", NodeType: "CheckpointLoaderSimple", WidgetValue: ""}
	res, err := Resolve(context.Background(), ref, newFakeIndex(), "")
	if err != nil {
		t.Fatal(err)
	}
	if res.MatchType != MatchNotFound {
		t.Errorf("expected not_found for empty widget value, got %+v", res)
	}
}

func TestResolve_UnknownLoaderSkipsReconstruction(t *testing.T) {
	idx := newFakeIndex()
	idx.byFilename["weird.bin"] = []modelindex.LocationWithModel{{Model: modelFor("hash7")}}

	ref := Reference{NodeID: "1", NodeType: "SomeUnknownCustomLoader", WidgetValue: "weird.bin"}
	res, err := Resolve(context.Background(), ref, idx, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.MatchType != MatchFilename || res.Model.Hash != "hash7" {
		t.Errorf("expected fall-through to filename match for unknown loader type, got %+v", res)
	}
}
