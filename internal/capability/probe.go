// Package capability reports which optional archive and compression features
// the host environment provides.
package capability

import "sort"

// Names of the capabilities the advisor asks about.
const (
	ZipRead  = "zip_read"
	ZipWrite = "zip_write"
	GzRead   = "gz_read"
	GzWrite  = "gz_write"
	Bz2Read  = "bz2_read"
	Bz2Write = "bz2_write"
)

// Probe answers whether a named capability is available.
// An error means the probe itself broke, not that the capability is missing.
type Probe interface {
	Available(name string) (bool, error)
}

// Func adapts a function to a Probe.
type Func func(name string) (bool, error)

// Available implements Probe.
func (f Func) Available(name string) (bool, error) { return f(name) }

// Set is a static Probe. Names not in the set are unavailable.
type Set map[string]bool

// NewSet returns a Set with the given names available.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

// Available implements Probe.
func (s Set) Available(name string) (bool, error) { return s[name], nil }

// Names returns the available names, sorted.
func (s Set) Names() []string {
	out := make([]string, 0, len(s))
	for n, ok := range s {
		if ok {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Default describes this build: archive/zip, compress/gzip and the
// compress/bzip2 decoder are linked in. There is no bzip2 encoder.
func Default() Set {
	return NewSet(ZipRead, ZipWrite, GzRead, GzWrite, Bz2Read)
}

// All lists every capability name the advisor knows, in check order.
func All() []string {
	return []string{ZipRead, ZipWrite, Bz2Read, Bz2Write, GzRead, GzWrite}
}

// WithDisabled masks names on top of p, so operators can describe a host
// that lacks features this build has.
func WithDisabled(p Probe, names ...string) Probe {
	if len(names) == 0 {
		return p
	}
	disabled := NewSet(names...)
	return Func(func(name string) (bool, error) {
		if disabled[name] {
			return false, nil
		}
		return p.Available(name)
	})
}
