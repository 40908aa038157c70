package manifest

// AddNode records node under identifier, deriving its dependency group name
// from the node's repository URL (falling back to identifier when the node
// has none, e.g. a local development checkout).
func (m *Manifest) AddNode(identifier string, node Node) string {
	m.Nodes[identifier] = node
	ref := node.Repository
	if ref == "" {
		ref = identifier
	}
	return groupSlug(node.Name, ref)
}

// RemoveNode deletes the node and its associated dependency group.
func (m *Manifest) RemoveNode(identifier string) {
	node, ok := m.Nodes[identifier]
	if !ok {
		return
	}
	ref := node.Repository
	if ref == "" {
		ref = identifier
	}
	delete(m.Nodes, identifier)
	m.RemoveGroup(groupSlug(node.Name, ref))
}

// GetExistingNodes returns every tracked custom node.
func (m *Manifest) GetExistingNodes() map[string]Node {
	return m.Nodes
}

// NodeGroup returns the dependency group name a tracked node's
// dependencies live under.
func (m *Manifest) NodeGroup(identifier string) (string, bool) {
	node, ok := m.Nodes[identifier]
	if !ok {
		return "", false
	}
	ref := node.Repository
	if ref == "" {
		ref = identifier
	}
	return groupSlug(node.Name, ref), true
}
