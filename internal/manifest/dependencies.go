package manifest

// GetGroups returns every dependency group and its pip specifiers.
func (m *Manifest) GetGroups() map[string][]string {
	return m.Dependencies
}

// AddToGroup appends specs to group, creating it if absent.
func (m *Manifest) AddToGroup(group string, specs ...string) {
	m.Dependencies[group] = append(m.Dependencies[group], specs...)
}

// RemoveGroup deletes group entirely. A no-op if group doesn't exist.
func (m *Manifest) RemoveGroup(group string) {
	delete(m.Dependencies, group)
}
