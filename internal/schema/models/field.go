package models

import (
	"regexp"
	"strings"
	"time"

	"lingap/pkg/attrs"
	id "lingap/pkg/domain"
	dErrors "lingap/pkg/domainerrors"
	pstrings "lingap/pkg/platform/strings"
)

// FieldKind enumerates the data kinds an administrator can pick for an
// intake field.
type FieldKind string

const (
	FieldText         FieldKind = "text"
	FieldLongText     FieldKind = "long_text"
	FieldNumber       FieldKind = "number"
	FieldDate         FieldKind = "date"
	FieldSingleChoice FieldKind = "single_choice"
	FieldMultiChoice  FieldKind = "multi_choice"
)

// IsChoice reports whether the kind carries an option set.
func (k FieldKind) IsChoice() bool {
	return k == FieldSingleChoice || k == FieldMultiChoice
}

// ValueKind maps a field kind to the attribute value kind it stores.
func (k FieldKind) ValueKind() (attrs.Kind, bool) {
	switch k {
	case FieldText, FieldLongText:
		return attrs.KindText, true
	case FieldNumber:
		return attrs.KindNumber, true
	case FieldDate:
		return attrs.KindDate, true
	case FieldSingleChoice:
		return attrs.KindChoice, true
	case FieldMultiChoice:
		return attrs.KindChoices, true
	}
	return "", false
}

// Field names become attribute map keys, so they must be stable identifiers.
var fieldNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{0,63}$`)

// FieldDefinition is one administrator-defined intake field.
//
// Invariants:
//   - Name matches fieldNamePattern and is unique across the schema
//   - Label is non-empty and unique across the schema
//   - Choice kinds carry at least one option; other kinds carry none
//   - Name is never the reserved idNumber key
//   - Removal never purges attributes already stored on records
type FieldDefinition struct {
	ID           id.FieldID `json:"id"`
	Name         string     `json:"name"`
	Label        string     `json:"label"`
	Kind         FieldKind  `json:"kind"`
	Options      []string   `json:"options,omitempty"`
	Required     bool       `json:"required"`
	GroupKey     string     `json:"group_key"`
	DisplayOrder int        `json:"display_order"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// HasOption reports whether the option set contains value (exact match;
// options are administrator-curated, not free text).
func (f *FieldDefinition) HasOption(value string) bool {
	for _, opt := range f.Options {
		if opt == value {
			return true
		}
	}
	return false
}

// FieldGroup is an intake-form section.
type FieldGroup struct {
	Key          string `json:"key"`
	Label        string `json:"label"`
	DisplayOrder int    `json:"display_order"`
}

// NewFieldDefinition validates inputs and constructs a FieldDefinition.
func NewFieldDefinition(fieldID id.FieldID, name, label string, kind FieldKind, options []string, required bool, groupKey string, displayOrder int, now time.Time) (*FieldDefinition, error) {
	name = strings.TrimSpace(name)
	label = strings.TrimSpace(label)
	groupKey = strings.TrimSpace(groupKey)

	if !fieldNamePattern.MatchString(name) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "field name must be a short identifier (letters, digits, underscore)")
	}
	if name == attrs.KeyIDNumber {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is reserved for the identifier allocator", attrs.KeyIDNumber)
	}
	if label == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "field label cannot be empty")
	}
	if groupKey == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "field group cannot be empty")
	}
	if _, ok := kind.ValueKind(); !ok {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown field kind %q", kind)
	}
	options = pstrings.DedupeAndTrim(options)
	if kind.IsChoice() && len(options) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "choice fields need at least one option")
	}
	if !kind.IsChoice() && len(options) > 0 {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s fields cannot carry options", kind)
	}

	return &FieldDefinition{
		ID:           fieldID,
		Name:         name,
		Label:        label,
		Kind:         kind,
		Options:      append([]string(nil), options...),
		Required:     required,
		GroupKey:     groupKey,
		DisplayOrder: displayOrder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
