// Package folders maps the folder icons of a tree view to their OCR'd
// labels and resolves target names against the result.
package folders

import (
	"fmt"
	"image"
)

// FolderEntry is one labeled folder icon. Coordinates are absolute screen
// pixels.
type FolderEntry struct {
	Text   string
	ClickX int
	ClickY int
	IconX  int
	IconY  int
}

// Click returns the point to click to select the folder.
func (e FolderEntry) Click() image.Point {
	return image.Pt(e.ClickX, e.ClickY)
}

func (e FolderEntry) String() string {
	return fmt.Sprintf("%q click=(%d,%d) icon=(%d,%d)", e.Text, e.ClickX, e.ClickY, e.IconX, e.IconY)
}

// FolderMap is an insertion-ordered label → entry mapping. Setting an
// existing label replaces the entry in place.
type FolderMap struct {
	keys    []string
	entries map[string]FolderEntry
}

// NewFolderMap returns an empty map.
func NewFolderMap() *FolderMap {
	return &FolderMap{entries: make(map[string]FolderEntry)}
}

// Set stores e under label and reports whether the label was already present.
func (m *FolderMap) Set(label string, e FolderEntry) bool {
	_, existed := m.entries[label]
	if !existed {
		m.keys = append(m.keys, label)
	}
	m.entries[label] = e
	return existed
}

// Get returns the entry for label.
func (m *FolderMap) Get(label string) (FolderEntry, bool) {
	if m == nil {
		return FolderEntry{}, false
	}
	e, ok := m.entries[label]
	return e, ok
}

// Keys returns the labels in insertion order.
func (m *FolderMap) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Entries returns the entries in insertion order.
func (m *FolderMap) Entries() []FolderEntry {
	if m == nil {
		return nil
	}
	out := make([]FolderEntry, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.entries[k])
	}
	return out
}

// Len returns the number of labels.
func (m *FolderMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}
