package manifest

// AddWorkflow starts (or replaces) tracking for a workflow.
func (m *Manifest) AddWorkflow(name string, wf Workflow) {
	m.Workflows[name] = wf
}

// RemoveWorkflow stops tracking a workflow. Entries in models.required
// that only this workflow used stay in place; nothing removes them
// automatically.
func (m *Manifest) RemoveWorkflow(name string) {
	delete(m.Workflows, name)
}

// GetAllWithResolutions returns every tracked workflow's resolved
// requirements, keyed by workflow name.
func (m *Manifest) GetAllWithResolutions() map[string]Workflow {
	return m.Workflows
}

// GetWorkflowModels returns the model references recorded for workflow
// name, or nil if the workflow isn't tracked.
func (m *Manifest) GetWorkflowModels(name string) []ModelRef {
	wf, ok := m.Workflows[name]
	if !ok {
		return nil
	}
	return wf.Requires.Models
}

// AddWorkflowModel upserts ref into workflow name's model list. Resolved
// refs are matched and replaced by Hash; unresolved refs by the
// (NodeID, WidgetIndex) pair so a later resolution that changes which
// filename fills that widget replaces rather than duplicates the entry.
func (m *Manifest) AddWorkflowModel(name string, ref ModelRef) {
	wf := m.Workflows[name]
	if wf.Requires.Models == nil {
		wf.Requires.Models = []ModelRef{}
	}
	for i, existing := range wf.Requires.Models {
		if sameModelSlot(existing, ref) {
			wf.Requires.Models[i] = ref
			m.Workflows[name] = wf
			return
		}
	}
	wf.Requires.Models = append(wf.Requires.Models, ref)
	m.Workflows[name] = wf
}

func sameModelSlot(a, b ModelRef) bool {
	if a.Resolved && b.Resolved {
		return a.Hash == b.Hash
	}
	return a.NodeID == b.NodeID && a.WidgetIndex == b.WidgetIndex
}
