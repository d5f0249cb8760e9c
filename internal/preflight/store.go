package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/dbadvisor/internal/capability"
)

// CheckStore opens the store and reads its server profiles.
func (c *Checker) CheckStore(_ context.Context, uri string) CheckResult {
	result := CheckResult{
		Name:     "store",
		Required: true,
		Details:  uri,
	}

	store, err := c.open(uri)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot open store: %v", err)
		return result
	}
	if cl, ok := store.(io.Closer); ok {
		defer func() { _ = cl.Close() }()
	}

	n, err := store.ServerCount()
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot read store: %v", err)
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d server profile(s)", n)
	if n == 0 {
		result.Status = StatusWarn
		result.Message = "no server profiles configured"
	}
	return result
}

// CheckStoreWritable checks that a generated secret could be persisted.
func (c *Checker) CheckStoreWritable(uri string) CheckResult {
	result := CheckResult{
		Name: "store_writable",
	}

	path := storeFile(uri)
	if path == "" {
		result.Status = StatusWarn
		result.Message = "no store configured"
		return result
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("generated secrets cannot be persisted: %v", err)
		return result
	}
	_ = f.Close()

	// FileStore writes backups and its lock file next to the store.
	dir := filepath.Dir(path)
	probe, err := os.CreateTemp(dir, ".dbadvisor-preflight-*")
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("store directory is not writable: %v", err)
		return result
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())

	result.Status = StatusPass
	result.Message = "OK"
	return result
}

// CheckCapabilities reports capabilities the host lacks. Missing ones only
// matter when the matching dump option is on, so this never fails.
func (c *Checker) CheckCapabilities() CheckResult {
	result := CheckResult{
		Name: "capabilities",
	}

	var missing []string
	for _, name := range capability.All() {
		ok, err := c.probe.Available(name)
		if err != nil {
			result.Status = StatusFail
			result.Required = true
			result.Message = fmt.Sprintf("capability probe failed for %s: %v", name, err)
			return result
		}
		if !ok {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 {
		result.Status = StatusPass
		result.Message = "all available"
		return result
	}

	result.Status = StatusWarn
	result.Message = "unavailable: " + strings.Join(missing, ", ")
	result.Details = "disable the matching ZipDump, BZipDump or GZipDump option on this host"
	return result
}

// storeFile returns the file behind a store URI.
func storeFile(uri string) string {
	if path, ok := strings.CutPrefix(uri, "sqlite:"); ok {
		return path
	}
	return strings.TrimPrefix(uri, "file:")
}

// storeDir is the directory holding the store, or the working directory.
func storeDir(uri string) string {
	if path := storeFile(uri); path != "" {
		return filepath.Dir(path)
	}
	return "."
}
