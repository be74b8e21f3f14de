// Package scanner drives class enumeration over a set of containers and
// groups the class names that fall under requested namespaces.
package scanner

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/deploymenttheory/go-dexscan/internal/interfaces"
	"github.com/deploymenttheory/go-dexscan/internal/logging"
)

// Strategy selects how containers are scanned.
type Strategy int

const (
	// Sequential scans containers one after another on the caller's goroutine.
	Sequential Strategy = iota
	// Concurrent scans every container in its own task and merges afterwards.
	Concurrent
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case Sequential:
		return "sequential"
	case Concurrent:
		return "concurrent"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy parses "sequential" or "concurrent".
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sequential", "sync", "":
		return Sequential, nil
	case "concurrent", "async":
		return Concurrent, nil
	default:
		return Sequential, fmt.Errorf("unknown scan strategy: %s", name)
	}
}

// Scanner orchestrates class enumeration across containers.
type Scanner struct {
	enumerator interfaces.ClassEnumerator
	strategy   Strategy
	workers    int
	logger     zerolog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithStrategy sets the execution strategy.
func WithStrategy(strategy Strategy) Option {
	return func(s *Scanner) {
		s.strategy = strategy
	}
}

// WithWorkers bounds the number of containers scanned at once by the
// concurrent strategy. Values below one mean runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		s.workers = n
	}
}

// New creates a scanner over enumerator.
func New(enumerator interfaces.ClassEnumerator, logger zerolog.Logger, opts ...Option) *Scanner {
	s := &Scanner{
		enumerator: enumerator,
		strategy:   Sequential,
		logger:     logging.Component(logger, "scanner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers < 1 {
		s.workers = runtime.NumCPU()
	}
	return s
}

// Strategy returns the configured execution strategy.
func (s *Scanner) Strategy() Strategy {
	return s.strategy
}

// partial is the result of scanning a single container.
type partial struct {
	index   int
	classes map[string]ClassSet
	report  ContainerReport
}

// Scan enumerates every container and groups matching class names by
// namespace. A container that fails to open or read contributes no classes
// and is reported in Result.Containers. The scan always runs to completion.
func (s *Scanner) Scan(containers []string, m Matcher) *Result {
	result := newResult()
	if len(containers) == 0 {
		return result
	}

	var partials []partial
	switch s.strategy {
	case Concurrent:
		partials = s.scanConcurrent(containers, m)
	default:
		partials = s.scanSequential(containers, m)
	}

	sort.Slice(partials, func(i, j int) bool { return partials[i].index < partials[j].index })
	for _, p := range partials {
		result.merge(p)
	}

	s.logger.Debug().
		Str("strategy", s.strategy.String()).
		Int("containers", len(containers)).
		Int("failed", len(result.Failed())).
		Int("namespaces", len(result.Classes)).
		Msg("Scan complete")

	return result
}

// ScanNamespaces scans for every namespace in namespaces.
func (s *Scanner) ScanNamespaces(containers []string, namespaces []string) *Result {
	return s.Scan(containers, NewPrefixMatcher(namespaces...))
}

// ScanNamespace scans for a single namespace and returns its class set
// alongside the full result.
func (s *Scanner) ScanNamespace(containers []string, namespace string) (ClassSet, *Result) {
	result := s.Scan(containers, NewPrefixMatcher(namespace))
	return result.Namespace(namespace), result
}

func (s *Scanner) scanSequential(containers []string, m Matcher) []partial {
	partials := make([]partial, 0, len(containers))
	for i, path := range containers {
		partials = append(partials, s.scanContainer(i, path, m))
	}
	return partials
}

// scanConcurrent runs one task per container. Every task owns its partial
// result; merging happens only after all of them have finished.
func (s *Scanner) scanConcurrent(containers []string, m Matcher) []partial {
	p := pool.NewWithResults[partial]().WithMaxGoroutines(s.workers)
	for i, path := range containers {
		p.Go(func() partial {
			return s.scanContainer(i, path, m)
		})
	}
	return p.Wait()
}

func (s *Scanner) scanContainer(index int, path string, m Matcher) partial {
	p := partial{
		index:   index,
		classes: make(map[string]ClassSet),
		report:  ContainerReport{Path: path},
	}

	for className, err := range s.enumerator.Enumerate(path) {
		if err != nil {
			// A container that cannot be read in full contributes nothing.
			p.classes = map[string]ClassSet{}
			p.report = ContainerReport{Path: path, Err: err}
			return p
		}

		p.report.Classes++
		matched := false
		m.Match(className, func(namespace string) {
			set, ok := p.classes[namespace]
			if !ok {
				set = make(ClassSet)
				p.classes[namespace] = set
			}
			set.Add(className)
			matched = true
		})
		if matched {
			p.report.Matched++
		}
	}

	return p
}
