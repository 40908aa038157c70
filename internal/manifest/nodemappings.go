package manifest

// SetNodeMapping records a workspace-local override from a node type (or
// compound "node-type::signature" key) to the registry package that
// provides it. Consulted as priority 3 in the node resolution chain.
func (m *Manifest) SetNodeMapping(key string, mapping NodeMapping) {
	m.NodeMappings[key] = mapping
}

// RemoveNodeMapping deletes a mapping override.
func (m *Manifest) RemoveNodeMapping(key string) {
	delete(m.NodeMappings, key)
}

// ResolveNodeMapping looks up a mapping override, trying the compound
// signature key first and falling back to the bare node type.
func (m *Manifest) ResolveNodeMapping(nodeType, signature string) (NodeMapping, bool) {
	if signature != "" {
		if nm, ok := m.NodeMappings[nodeType+"::"+signature]; ok {
			return nm, true
		}
	}
	nm, ok := m.NodeMappings[nodeType]
	return nm, ok
}
