package domain

// Layer is a definition instantiated onto one entity's stack. It owns a
// value copy of the definition's changeset taken at apply time; later edits
// to the definition do not retroactively change the layer.
type Layer struct {
	DefinitionID string
	Changeset    Changeset
	Disabled     bool
	Mode         Mode
}

// OverrideState is the per-entity override session: the captured base
// snapshot plus the ordered layer stack. The snapshot is non-nil exactly
// while the stack is non-empty.
type OverrideState struct {
	Base  *BaseSnapshot
	Stack []Layer
}

// IsEmpty reports whether no override session is active.
func (s OverrideState) IsEmpty() bool {
	return len(s.Stack) == 0
}

// IndexOf returns the stack position of the layer for definitionID, or -1.
func (s OverrideState) IndexOf(definitionID string) int {
	for i, layer := range s.Stack {
		if layer.DefinitionID == definitionID {
			return i
		}
	}
	return -1
}

// Push instantiates the definition as a layer on top of the stack and
// returns the updated state.
//
// Identity-mode definitions evict any existing identity layer first; at most
// one identity layer lives on the stack. Re-pushing a definition already on
// the stack replaces its layer in place so retries do not grow the stack.
func (s OverrideState) Push(def VisageDefinition) OverrideState {
	layer := Layer{
		DefinitionID: def.ID,
		Changeset:    def.Changeset.Clone(),
		Mode:         def.Mode,
	}

	if existing := s.IndexOf(def.ID); existing >= 0 {
		stack := make([]Layer, len(s.Stack))
		copy(stack, s.Stack)
		layer.Disabled = stack[existing].Disabled
		stack[existing] = layer
		return OverrideState{Base: s.Base, Stack: stack}
	}

	stack := make([]Layer, 0, len(s.Stack)+1)
	for _, existing := range s.Stack {
		if def.Mode == ModeIdentity && existing.Mode == ModeIdentity {
			continue
		}
		stack = append(stack, existing)
	}
	stack = append(stack, layer)
	return OverrideState{Base: s.Base, Stack: stack}
}

// Remove drops the layer for definitionID. Removing an absent layer is a
// no-op, not an error.
func (s OverrideState) Remove(definitionID string) OverrideState {
	if s.IndexOf(definitionID) < 0 {
		return s
	}
	stack := make([]Layer, 0, len(s.Stack)-1)
	for _, layer := range s.Stack {
		if layer.DefinitionID == definitionID {
			continue
		}
		stack = append(stack, layer)
	}
	return OverrideState{Base: s.Base, Stack: stack}
}

// SetDisabled marks the layer for definitionID hidden or visible without
// removing it, so order is preserved on re-enable. Absent layers are a
// no-op.
func (s OverrideState) SetDisabled(definitionID string, disabled bool) OverrideState {
	idx := s.IndexOf(definitionID)
	if idx < 0 {
		return s
	}
	stack := make([]Layer, len(s.Stack))
	copy(stack, s.Stack)
	stack[idx].Disabled = disabled
	return OverrideState{Base: s.Base, Stack: stack}
}

// Reorder re-sequences layers by the given id list. Unknown ids are
// ignored; known layers missing from the list keep their relative order
// appended at the end.
func (s OverrideState) Reorder(orderedIDs []string) OverrideState {
	stack := make([]Layer, 0, len(s.Stack))
	taken := make(map[string]bool, len(s.Stack))

	for _, id := range orderedIDs {
		idx := s.IndexOf(id)
		if idx < 0 || taken[id] {
			continue
		}
		taken[id] = true
		stack = append(stack, s.Stack[idx])
	}
	for _, layer := range s.Stack {
		if !taken[layer.DefinitionID] {
			stack = append(stack, layer)
		}
	}
	return OverrideState{Base: s.Base, Stack: stack}
}
