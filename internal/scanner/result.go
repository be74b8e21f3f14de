package scanner

import "errors"

// ContainerReport describes what one container contributed to a scan.
type ContainerReport struct {
	Path string `json:"path" yaml:"path"`
	// Classes is the number of class names read from the container.
	Classes int `json:"classes" yaml:"classes"`
	// Matched is the number of class names that matched at least one namespace.
	Matched int   `json:"matched" yaml:"matched"`
	Err     error `json:"-" yaml:"-"`
}

// Failed reports whether the container could not be opened or fully read.
func (r ContainerReport) Failed() bool {
	return r.Err != nil
}

// Result is the outcome of a scan. It is not modified after being returned.
type Result struct {
	// Classes maps each namespace with at least one match to its class names.
	Classes map[string]ClassSet
	// Containers holds one report per scanned container, in input order.
	Containers []ContainerReport
}

func newResult() *Result {
	return &Result{Classes: make(map[string]ClassSet)}
}

// Namespace returns the classes found for namespace, never nil.
func (r *Result) Namespace(namespace string) ClassSet {
	if s, ok := r.Classes[namespace]; ok {
		return s
	}
	return ClassSet{}
}

// Failed returns the reports of containers that could not be read.
func (r *Result) Failed() []ContainerReport {
	var failed []ContainerReport
	for _, c := range r.Containers {
		if c.Failed() {
			failed = append(failed, c)
		}
	}
	return failed
}

// AllFailed reports whether containers were scanned and none could be read,
// distinguishing "nothing matched" from "nothing was readable".
func (r *Result) AllFailed() bool {
	return len(r.Containers) > 0 && len(r.Failed()) == len(r.Containers)
}

// Err joins the errors of every failed container, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, c := range r.Failed() {
		errs = append(errs, c.Err)
	}
	return errors.Join(errs...)
}

// merge folds a per-container partial result into r.
func (r *Result) merge(p partial) {
	r.Containers = append(r.Containers, p.report)
	for ns, set := range p.classes {
		dst, ok := r.Classes[ns]
		if !ok {
			dst = make(ClassSet, len(set))
			r.Classes[ns] = dst
		}
		dst.Union(set)
	}
}
