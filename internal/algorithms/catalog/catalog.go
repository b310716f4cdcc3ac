// Package catalog wires the built-in extraction variants into a manager.
package catalog

import (
	"curve-digitizer/internal/algorithms"
	"curve-digitizer/internal/algorithms/stepwindow"
)

// NewManager returns a manager with every built-in variant registered.
func NewManager() *algorithms.Manager {
	return algorithms.NewManager(
		stepwindow.Factory,
	)
}
