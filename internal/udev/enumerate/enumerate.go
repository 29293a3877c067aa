// Package enumerate implements the concurrent device enumeration engine:
// a set of match/no-match filters over subsystem, sysname, sysattr, and
// property, applied while fanning out across /sys/dev/{char,block}.
package enumerate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/smazurov/udevzero/internal/metrics"
	"github.com/smazurov/udevzero/internal/udev/device"
)

// keyGlob pairs a property/sysattr key with a glob pattern for its value.
type keyGlob struct {
	key     string
	pattern string
}

// Enumerator accumulates match/no-match filters and, on Scan, walks the
// kernel's two flat device-number directories applying them concurrently.
// The zero value is not usable; construct with New.
type Enumerator struct {
	factory *device.Factory

	subsystemMatch   []string
	subsystemNomatch []string
	sysnameMatch     []string
	sysnameNomatch   []string
	sysattrMatch     []keyGlob
	sysattrNomatch   []keyGlob
	propertyMatch    []keyGlob
	propertyNomatch  []keyGlob
}

// New returns an Enumerator with no filters set, which matches every
// device on the system.
func New(factory *device.Factory) *Enumerator {
	return &Enumerator{factory: factory}
}

func (e *Enumerator) AddMatchSubsystem(glob string) *Enumerator {
	e.subsystemMatch = append(e.subsystemMatch, glob)
	return e
}

func (e *Enumerator) AddNomatchSubsystem(glob string) *Enumerator {
	e.subsystemNomatch = append(e.subsystemNomatch, glob)
	return e
}

func (e *Enumerator) AddMatchSysname(glob string) *Enumerator {
	e.sysnameMatch = append(e.sysnameMatch, glob)
	return e
}

func (e *Enumerator) AddNomatchSysname(glob string) *Enumerator {
	e.sysnameNomatch = append(e.sysnameNomatch, glob)
	return e
}

func (e *Enumerator) AddMatchSysattr(key, valueGlob string) *Enumerator {
	e.sysattrMatch = append(e.sysattrMatch, keyGlob{key, valueGlob})
	return e
}

func (e *Enumerator) AddNomatchSysattr(key, valueGlob string) *Enumerator {
	e.sysattrNomatch = append(e.sysattrNomatch, keyGlob{key, valueGlob})
	return e
}

func (e *Enumerator) AddMatchProperty(key, valueGlob string) *Enumerator {
	e.propertyMatch = append(e.propertyMatch, keyGlob{key, valueGlob})
	return e
}

func (e *Enumerator) AddNomatchProperty(key, valueGlob string) *Enumerator {
	e.propertyNomatch = append(e.propertyNomatch, keyGlob{key, valueGlob})
	return e
}

// devDirs are the two flat directories the kernel maintains under
// /sys/dev, one symlink per live device number.
var devDirs = []string{"/sys/dev/char", "/sys/dev/block"}

// Scan walks /sys/dev/{char,block} concurrently, constructing a Device for
// every entry and keeping those that satisfy every configured filter.
// Concurrency is capped at GOMAXPROCS so a slow sysattr read on one device
// can't starve the others indefinitely, while still bounding total
// goroutines on large systems. Results are returned sorted by syspath for
// deterministic ordering.
func (e *Enumerator) Scan(ctx context.Context) ([]*device.Device, error) {
	start := time.Now()
	defer func() { metrics.EnumerateDuration.Observe(time.Since(start).Seconds()) }()

	paths, err := e.listCandidatePaths()
	if err != nil {
		return nil, err
	}

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	results := make(chan *device.Device)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				d, err := e.factory.FromSyspath(path)
				if err != nil {
					// A device can disappear between directory listing
					// and construction (hotplug race); that is not a
					// scan failure.
					continue
				}
				if e.matches(d) {
					select {
					case results <- d:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, p := range paths {
			select {
			case jobs <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var out []*device.Device
	for d := range results {
		out = append(out, d)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Syspath() < out[j].Syspath() })

	bySubsystem := make(map[string]int)
	for _, d := range out {
		bySubsystem[d.Subsystem()]++
	}
	for subsystem, count := range bySubsystem {
		metrics.DevicesTracked.WithLabelValues(subsystem).Set(float64(count))
	}

	return out, nil
}

// listCandidatePaths enumerates every devnum symlink under /sys/dev/char
// and /sys/dev/block, deduplicating by resolved syspath (the two trees can
// both point at the same underlying device in unusual cases).
func (e *Enumerator) listCandidatePaths() ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string

	for _, dir := range devDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("enumerate: reading %s: %w", dir, err)
		}
		for _, ent := range entries {
			full := filepath.Join(dir, ent.Name())
			resolved, err := filepath.EvalSymlinks(full)
			if err != nil {
				continue
			}
			if _, dup := seen[resolved]; dup {
				continue
			}
			seen[resolved] = struct{}{}
			paths = append(paths, full)
		}
	}
	return paths, nil
}

func (e *Enumerator) matches(d *device.Device) bool {
	// A device with no SUBSYSTEM is never enumerable, even against an
	// empty (vacuously-true) match list.
	if d.Subsystem() == "" {
		return false
	}
	if !matchGlobList(d.Subsystem(), e.subsystemMatch, true) {
		return false
	}
	if matchGlobList(d.Subsystem(), e.subsystemNomatch, false) {
		return false
	}
	if !matchGlobList(d.Sysname(), e.sysnameMatch, true) {
		return false
	}
	if matchGlobList(d.Sysname(), e.sysnameNomatch, false) {
		return false
	}

	for _, kg := range e.propertyMatch {
		if !globMatch(kg.pattern, d.Get(kg.key)) {
			return false
		}
	}
	for _, kg := range e.propertyNomatch {
		if globMatch(kg.pattern, d.Get(kg.key)) {
			return false
		}
	}

	for _, kg := range e.sysattrMatch {
		v, err := d.SysattrValue(kg.key)
		if err != nil || !globMatch(kg.pattern, v) {
			return false
		}
	}
	for _, kg := range e.sysattrNomatch {
		v, err := d.SysattrValue(kg.key)
		if err == nil && globMatch(kg.pattern, v) {
			return false
		}
	}

	return true
}

// matchGlobList reports whether value satisfies a list of globs. An empty
// list means "no constraint configured" and returns emptyResult (true for
// match lists, which impose no restriction; the caller never calls this
// with an empty no-match list in a way that matters since the OR below
// would be false anyway).
func matchGlobList(value string, globs []string, emptyResult bool) bool {
	if len(globs) == 0 {
		return emptyResult
	}
	for _, g := range globs {
		if globMatch(g, value) {
			return true
		}
	}
	return false
}

// globMatch wraps filepath.Match, treating a malformed pattern as "no
// match" rather than propagating a syntax error through the filter chain.
func globMatch(pattern, value string) bool {
	ok, err := filepath.Match(pattern, value)
	return err == nil && ok
}
