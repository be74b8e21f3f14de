// Package receiver holds the module event receiver records that generated
// loader classes publish, and a registry that groups them for dispatch.
package receiver

import (
	"sort"
	"strings"
)

// Receiver priorities. Lower values are dispatched first.
const (
	PriorityHigh   = 0
	PriorityMedium = 1
	PriorityLow    = 2
)

// AllFlag selects every receiver of a group regardless of its flag.
const AllFlag = 0x0

const (
	// GeneratedPackage is the namespace every generated loader class lives in.
	GeneratedPackage = "com.shijingfeng.module_event_dispatcher.auto_generate"
	// LoaderPrefix starts the simple name of every generated loader class.
	LoaderPrefix = "ModuleDataLoader$$"
)

// Data describes one module event receiver.
type Data struct {
	ModuleName         string `json:"module_name" yaml:"module_name"`
	ClassQualifiedName string `json:"class_qualified_name" yaml:"class_qualified_name"`
	Group              string `json:"group" yaml:"group"`
	Priority           int    `json:"priority" yaml:"priority"`
	Flag               int    `json:"flag" yaml:"flag"`
}

// Loader receives the receiver records published by one module.
type Loader interface {
	Load(data []Data)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(data []Data)

// Load calls f(data).
func (f LoaderFunc) Load(data []Data) {
	f(data)
}

// IsLoaderClass reports whether className names a generated loader class.
func IsLoaderClass(className string) bool {
	simple := className
	if i := strings.LastIndexByte(className, '.'); i >= 0 {
		simple = className[i+1:]
	}
	return strings.HasPrefix(simple, LoaderPrefix)
}

// LoaderClassNames returns the generated loader classes among classNames, sorted.
func LoaderClassNames[S ~map[string]struct{}](classNames S) []string {
	var out []string
	for name := range classNames {
		if IsLoaderClass(name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// LoaderModuleName returns the module a generated loader class was produced
// for, e.g. "app" for "...ModuleDataLoader$$app".
func LoaderModuleName(className string) string {
	if !IsLoaderClass(className) {
		return ""
	}
	return className[strings.LastIndex(className, LoaderPrefix)+len(LoaderPrefix):]
}
