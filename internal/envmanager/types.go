// Package envmanager orchestrates a workflow's dependency resolution: it
// wires the parser, the node-mapping resolver, the model resolver, and the
// manifest store together into the four-step pipeline a driver (CLI or
// otherwise) calls to bring a tracked workflow's custom nodes and models
// into the manifest, interactively when automatic resolution falls short.
package envmanager

import (
	"errors"

	"github.com/comfyhub-org/comfygit/internal/modelindex"
	"github.com/comfyhub-org/comfygit/internal/modelresolve"
	"github.com/comfyhub-org/comfygit/internal/nodemap"
	"github.com/comfyhub-org/comfygit/internal/workflow"
)

// ErrCancelled is returned by a NodeStrategy or ModelStrategy to signal
// that the user backed out of the interactive loop. FixResolution treats
// it as a clean stop, not a failure: it returns the partial result built
// from everything already decided (and already persisted).
var ErrCancelled = errors.New("resolution cancelled")

// SyncState classifies a workflow's on-disk copy against the version last
// committed to the environment's history.
type SyncState string

const (
	SyncUntracked SyncState = "untracked"
	SyncSynced    SyncState = "synced"
	SyncModified  SyncState = "modified"
)

// NodeMatch is one custom node type found in a workflow graph, along with
// the candidate packages the node-mapping resolver found for it.
type NodeMatch struct {
	NodeType   string
	Candidates []nodemap.Candidate
}

// ModelMatch is one model reference found in a workflow graph, along with
// its resolution against the model index.
type ModelMatch struct {
	Reference  modelresolve.Reference
	Resolution modelresolve.Resolution
}

// WorkflowAnalysis is the pure, read-only output of AnalyzeWorkflow: the
// parsed graph plus every node and model reference's initial resolution,
// un-prompted and unwritten.
type WorkflowAnalysis struct {
	Name       string
	Graph      *workflow.Graph
	SyncState  SyncState
	NodeTypes  []NodeMatch
	ModelRefs  []ModelMatch
	AutoSelect bool
}

// NodeResolution is one node type that ResolveWorkflow or FixResolution
// decided on, ready to be written by ApplyResolution.
type NodeResolution struct {
	NodeType  string
	PackageID string
	MatchType nodemap.MatchType
	Optional  bool // confirmed not required; no package id
}

// ModelResolution is one model reference that was resolved to an indexed
// model, or marked as a pending download intent.
type ModelResolution struct {
	Reference   modelresolve.Reference
	MatchType   modelresolve.MatchType
	Model       *modelindex.Model
	DownloadURL string // set for download-intent resolutions; Model is nil
}

// ResolutionResult is the output of ResolveWorkflow and the running state
// of FixResolution: resolved items ready for ApplyResolution, plus
// whatever remains ambiguous or unresolved.
type ResolutionResult struct {
	WorkflowName string

	ResolvedNodes   []NodeResolution
	AmbiguousNodes  []NodeMatch
	UnresolvedNodes []string

	ResolvedModels   []ModelResolution
	AmbiguousModels  []ModelMatch
	UnresolvedModels []modelresolve.Reference
}

// HasRemainingWork reports whether anything still needs an interactive
// decision.
func (r *ResolutionResult) HasRemainingWork() bool {
	return len(r.AmbiguousNodes) > 0 || len(r.UnresolvedNodes) > 0 ||
		len(r.AmbiguousModels) > 0 || len(r.UnresolvedModels) > 0
}

// NodeStrategy supplies interactive (or scripted-auto) decisions for node
// types ResolveWorkflow could not settle automatically.
type NodeStrategy interface {
	// ResolveUnknown is asked for every ambiguous or unresolved node type.
	// Returning ErrCancelled stops the fix loop cleanly.
	ResolveUnknown(nodeType string, candidates []nodemap.Candidate) (NodeDecision, error)
}

// NodeDecision is a NodeStrategy's answer for one node type.
type NodeDecision struct {
	PackageID string // chosen package id; empty with Optional true means "confirmed not required"
	Optional  bool
}

// ModelStrategy supplies interactive (or scripted-auto) decisions for
// model references ResolveWorkflow could not settle automatically.
type ModelStrategy interface {
	// ResolveAmbiguous is asked when a reference had more than one
	// candidate. Returning ErrCancelled stops the fix loop cleanly.
	ResolveAmbiguous(ref modelresolve.Reference, candidates []modelindex.LocationWithModel) (ModelDecision, error)
	// HandleMissing is asked when a reference had no candidates at all.
	HandleMissing(ref modelresolve.Reference) (ModelDecision, error)
}

// ModelDecision is a ModelStrategy's answer for one model reference.
// Exactly one of Hash or DownloadURL should be set for a positive
// decision; both empty (with Optional true) means "confirmed not
// required".
type ModelDecision struct {
	Hash        string // picked an existing indexed model
	DownloadURL string // download intent: fetch from this URL
	TargetPath  string // relative path the download should land at
	Optional    bool
}
