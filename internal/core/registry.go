package core

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// registry maps module IDs to their constructors. Modules are added from
// init() and never removed outside tests.
type registry struct {
	mu    sync.RWMutex
	infos map[ModuleID]ModuleInfo
}

var modules = &registry{infos: make(map[ModuleID]ModuleInfo)}

func (r *registry) add(info ModuleInfo) error {
	switch {
	case info.ID == "":
		return fmt.Errorf("module ID must not be empty")
	case info.New == nil:
		return fmt.Errorf("module %s: New function must not be nil", info.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.infos[info.ID]; dup {
		return fmt.Errorf("module already registered: %s", info.ID)
	}
	r.infos[info.ID] = info
	return nil
}

func (r *registry) sorted(keep func(ModuleID) bool) []ModuleInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ModuleInfo, 0, len(r.infos))
	for id, info := range r.infos {
		if keep == nil || keep(id) {
			out = append(out, info)
		}
	}
	slices.SortFunc(out, func(a, b ModuleInfo) int { return strings.Compare(string(a.ID), string(b.ID)) })
	return out
}

// RegisterModule records a module's ModuleInfo under its ID. Call it from
// init(); an empty ID, a nil constructor or a duplicate ID is a programming
// error and panics.
func RegisterModule(instance Module) {
	if err := modules.add(instance.ModuleInfo()); err != nil {
		panic(err.Error())
	}
}

// GetModule returns the ModuleInfo for id.
func GetModule(id string) (ModuleInfo, bool) {
	modules.mu.RLock()
	defer modules.mu.RUnlock()
	info, ok := modules.infos[ModuleID(id)]
	return info, ok
}

// GetModules returns all registered modules sorted by ID.
func GetModules() []ModuleInfo {
	return modules.sorted(nil)
}

// GetModulesByNamespace returns the modules whose ID starts with
// namespace + ".", sorted by ID.
func GetModulesByNamespace(namespace string) []ModuleInfo {
	return modules.sorted(func(id ModuleID) bool { return id.Namespace() == namespace })
}

func resetRegistry() {
	modules.mu.Lock()
	defer modules.mu.Unlock()
	modules.infos = make(map[ModuleID]ModuleInfo)
}
