// Package catalog houses concrete implementations of core.Catalog, the
// process-wide registry of form definitions. The interface lives in core to
// centralize domain contracts; keeping only implementations here prevents
// higher level packages (orchestrator, façade) from depending on concrete
// storage.
package catalog
