// Package preflight checks that dbadvisor can do its job on this machine
// before an advisory pass is trusted.
//
// The package validates:
//   - The configuration store can be opened and read
//   - The store can be written, so a generated secret can be persisted
//   - The host provides the capabilities the export and import paths need
//   - The log directory is writable
//   - Disk space next to the store (minimum 10MB)
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New(preflight.WithProbe(probe))
//	results := checker.RunAll(ctx, "/etc/dbadmin/config.yaml")
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
