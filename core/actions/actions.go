/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Taxinomia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package actions decides which row actions a table shows for each row.
//
// Actions are declared as a list of BuiltIn and Custom values. Built-in actions
// are gated by the caller's capability flags; custom actions are only hidden
// by their own visibility predicate.
package actions

import (
	"errors"
	"fmt"
)

// ErrActionNotFound is returned by Find when the key is not visible for the row.
var ErrActionNotFound = errors.New("actions: action not available for row")

// BuiltInType enumerates the actions with default labels and capability gating.
type BuiltInType int

const (
	View BuiltInType = iota
	Edit
	Duplicate
	Delete
)

// String returns the key used for the built-in action.
func (t BuiltInType) String() string {
	switch t {
	case View:
		return "view"
	case Edit:
		return "edit"
	case Duplicate:
		return "duplicate"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("builtin(%d)", int(t))
	}
}

// defaultLabel and defaultIcon are used when a BuiltIn leaves Label empty.
func (t BuiltInType) defaultLabel() string {
	switch t {
	case View:
		return "View"
	case Edit:
		return "Edit"
	case Duplicate:
		return "Duplicate"
	case Delete:
		return "Delete"
	}
	return t.String()
}

func (t BuiltInType) defaultIcon() string {
	switch t {
	case View:
		return "eye"
	case Edit:
		return "pencil"
	case Duplicate:
		return "copy"
	case Delete:
		return "trash"
	}
	return ""
}

// RowAction is either a BuiltIn or a Custom action. The interface is sealed.
type RowAction[R any] interface {
	rowAction()
}

// BuiltIn is one of the fixed actions (view, edit, duplicate, delete).
type BuiltIn[R any] struct {
	Type      BuiltInType
	OnClick   func(row R)
	Label     string          // empty uses the default label
	IsVisible func(row R) bool // nil means always visible
}

func (BuiltIn[R]) rowAction() {}

// Custom is a caller defined action. Capability flags never hide it.
type Custom[R any] struct {
	ID            string
	Label         string
	Icon          string
	OnClick       func(row R)
	IsDestructive bool
	HasSeparator  bool             // draw a divider before this action
	IsVisible     func(row R) bool // nil means always visible
}

func (Custom[R]) rowAction() {}

// Config is the action list plus the capability flags that gate built-ins.
type Config[R any] struct {
	Actions []RowAction[R]
	CanEdit bool
	// CanDelete defaults to CanEdit when nil.
	CanDelete *bool
}

// Bool returns a pointer to b, for Config.CanDelete.
func Bool(b bool) *bool {
	return &b
}

// canDelete applies the CanEdit default.
func (c Config[R]) canDelete() bool {
	if c.CanDelete == nil {
		return c.CanEdit
	}
	return *c.CanDelete
}

// Resolved is an action that is visible for a particular row.
type Resolved[R any] struct {
	// Key identifies the action within the row: the built-in type name or the custom ID.
	Key             string
	Label           string
	Icon            string
	Destructive     bool
	SeparatorBefore bool
	// Demoted is set when an edit action is shown as view for lack of CanEdit.
	Demoted bool
	OnClick func(row R)
}

// Click invokes the action's handler for row, if any.
func (r Resolved[R]) Click(row R) {
	if r.OnClick != nil {
		r.OnClick(row)
	}
}

// Resolve returns the visible actions for row in declaration order.
// A nil result means the row has no action menu at all.
//
// Built-in rules:
//   - delete needs CanDelete; duplicate needs CanEdit.
//   - edit without CanEdit is shown as view with the edit handler, unless the
//     list also declares a built-in view, which then stands in for it.
//   - view is dropped when CanEdit is true and the list declares a built-in edit.
func Resolve[R any](row R, cfg Config[R]) []Resolved[R] {
	hasBuiltIn := map[BuiltInType]bool{}
	for _, action := range cfg.Actions {
		if b, ok := action.(BuiltIn[R]); ok {
			hasBuiltIn[b.Type] = true
		}
	}

	var result []Resolved[R]
	for _, action := range cfg.Actions {
		var resolved Resolved[R]
		switch a := action.(type) {
		case BuiltIn[R]:
			if a.IsVisible != nil && !a.IsVisible(row) {
				continue
			}
			r, ok := resolveBuiltIn(a, cfg, hasBuiltIn)
			if !ok {
				continue
			}
			resolved = r
		case Custom[R]:
			if a.IsVisible != nil && !a.IsVisible(row) {
				continue
			}
			resolved = Resolved[R]{
				Key:             a.ID,
				Label:           a.Label,
				Icon:            a.Icon,
				Destructive:     a.IsDestructive,
				SeparatorBefore: a.HasSeparator,
				OnClick:         a.OnClick,
			}
		default:
			continue
		}
		// A divider before the first item would be an empty group
		if len(result) == 0 {
			resolved.SeparatorBefore = false
		}
		result = append(result, resolved)
	}
	return result
}

func resolveBuiltIn[R any](a BuiltIn[R], cfg Config[R], hasBuiltIn map[BuiltInType]bool) (Resolved[R], bool) {
	label := a.Label
	if label == "" {
		label = a.Type.defaultLabel()
	}
	resolved := Resolved[R]{
		Key:     a.Type.String(),
		Label:   label,
		Icon:    a.Type.defaultIcon(),
		OnClick: a.OnClick,
	}

	switch a.Type {
	case Delete:
		if !cfg.canDelete() {
			return Resolved[R]{}, false
		}
		resolved.Destructive = true
	case Duplicate:
		if !cfg.CanEdit {
			return Resolved[R]{}, false
		}
	case Edit:
		if cfg.CanEdit {
			break
		}
		if hasBuiltIn[View] {
			return Resolved[R]{}, false
		}
		resolved.Key = View.String()
		resolved.Label = View.defaultLabel()
		resolved.Icon = View.defaultIcon()
		resolved.Demoted = true
	case View:
		if cfg.CanEdit && hasBuiltIn[Edit] {
			return Resolved[R]{}, false
		}
	default:
		return Resolved[R]{}, false
	}
	return resolved, true
}

// Find resolves the actions for row and returns the one with key.
// Dispatching clicks through Find means a hidden action can never run.
func Find[R any](row R, cfg Config[R], key string) (Resolved[R], error) {
	for _, r := range Resolve(row, cfg) {
		if r.Key == key {
			return r, nil
		}
	}
	return Resolved[R]{}, fmt.Errorf("%w: %q", ErrActionNotFound, key)
}

// Keys returns the keys of resolved actions, in order.
func Keys[R any](resolved []Resolved[R]) []string {
	keys := make([]string, len(resolved))
	for i, r := range resolved {
		keys[i] = r.Key
	}
	return keys
}
