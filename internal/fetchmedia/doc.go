// Package fetchmedia downloads source media into the artifact store.
package fetchmedia
