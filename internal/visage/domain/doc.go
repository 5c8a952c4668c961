// Package domain defines the core business entities and logic for visage
// overrides.
//
// The model is centered around a few key concepts:
//
// # Visage definitions
//
// A VisageDefinition is a stored, reusable named override: a sparse Changeset
// of visual and behavioral fields, a Mode (identity or overlay), and an
// optional AutomationRule. Definitions are templates; they live independently
// of any scene entity.
//
// # Layers and the override stack
//
// Applying a definition to an entity instantiates a Layer: a value copy of
// the definition's changeset at apply time. Layers stack per entity in push
// order. At most one identity-mode layer exists at a time (pushing a new one
// evicts the previous); overlay layers are unbounded and independent.
//
// # Base snapshots and resolution
//
// The first layer pushed onto an empty stack captures a BaseSnapshot of the
// entity's live fields. Resolve folds the stack bottom-to-top over the
// snapshot, applying only fields a changeset actually carries, and is the
// only place merge semantics live. When the stack empties the snapshot is
// written back and cleared.
//
// # Automation
//
// An AutomationRule watches external state changes through a set of
// conditions combined with AND/OR logic, and names the apply/remove reactions
// fired when the rule's latch transitions. Rule evaluation itself lives in
// the automation package; this package only defines and validates the shapes.
package domain
