package core

import "strings"

// ModuleID uniquely identifies a module. IDs are dot-namespaced,
// e.g. "store.file" or "gateway.http".
type ModuleID string

// Namespace returns the part of the ID before the last dot, or "" if
// the ID has no namespace.
func (id ModuleID) Namespace() string {
	s := string(id)
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[:i]
	}
	return ""
}

// Name returns the part of the ID after the last dot.
func (id ModuleID) Name() string {
	s := string(id)
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return s
}

// ModuleInfo describes a registered module: its ID and a constructor
// for fresh instances.
type ModuleInfo struct {
	ID  ModuleID
	New func() Module
}

// Module is the minimal interface every module implements. Optional
// lifecycle behavior is declared through the interfaces in lifecycle.go.
type Module interface {
	ModuleInfo() ModuleInfo
}
