package scan

import (
	"time"
)

// Request represents a namespace discovery request
type Request struct {
	// Identity is the application package name
	Identity string
	// Namespaces are the class name prefixes to collect
	Namespaces []string
	// Loaders also reports the generated receiver loader classes
	Loaders bool
}

// Response represents discovery results
type Response struct {
	ScanID       string            `json:"scan_id" yaml:"scan_id"`
	Identity     string            `json:"identity" yaml:"identity"`
	Strategy     string            `json:"strategy" yaml:"strategy"`
	Namespaces   []NamespaceResult `json:"namespaces" yaml:"namespaces"`
	Containers   []ContainerResult `json:"containers" yaml:"containers"`
	Loaders      []string          `json:"loaders,omitempty" yaml:"loaders,omitempty"`
	TotalClasses int               `json:"total_classes" yaml:"total_classes"`
	AllFailed    bool              `json:"all_failed" yaml:"all_failed"`
	Duration     time.Duration     `json:"duration" yaml:"duration"`
}

// NamespaceResult holds the classes found under one namespace, sorted
type NamespaceResult struct {
	Namespace string   `json:"namespace" yaml:"namespace"`
	Count     int      `json:"count" yaml:"count"`
	Classes   []string `json:"classes" yaml:"classes"`
}

// ContainerResult reports what one container contributed
type ContainerResult struct {
	Path    string `json:"path" yaml:"path"`
	Classes int    `json:"classes" yaml:"classes"`
	Matched int    `json:"matched" yaml:"matched"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the container could not be read
func (c ContainerResult) Failed() bool {
	return c.Error != ""
}

// FailedContainers returns the number of containers that could not be read
func (r *Response) FailedContainers() int {
	n := 0
	for _, c := range r.Containers {
		if c.Failed() {
			n++
		}
	}
	return n
}

// ResolveRequest asks for the container paths of an application
type ResolveRequest struct {
	Identity string
}

// ResolveResponse lists the resolved containers in scan order
type ResolveResponse struct {
	Identity   string   `json:"identity" yaml:"identity"`
	Native     bool     `json:"native_multi_container" yaml:"native_multi_container"`
	Containers []string `json:"containers" yaml:"containers"`
}

// ClassesRequest asks for every class of a single container
type ClassesRequest struct {
	Path string
	// Prefix optionally filters the listed classes
	Prefix string
}

// ClassesResponse lists the classes of one container in entry order
type ClassesResponse struct {
	Path     string   `json:"path" yaml:"path"`
	Loader   string   `json:"loader" yaml:"loader"`
	DexCount int      `json:"dex_count" yaml:"dex_count"`
	Total    int      `json:"total" yaml:"total"`
	Classes  []string `json:"classes" yaml:"classes"`
}
