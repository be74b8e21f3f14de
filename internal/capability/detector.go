// Package capability decides whether the runtime an application runs on loads
// every DEX container of a split application natively.
package capability

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/deploymenttheory/go-dexscan/internal/interfaces"
	"github.com/deploymenttheory/go-dexscan/internal/logging"
	"github.com/deploymenttheory/go-dexscan/internal/types"
)

// Runtime families with distinct version signals.
const (
	FamilyYunOS    = "yunos"
	FamilyStandard = "standard"
)

var vmVersionPattern = regexp.MustCompile(`^(\d+)\.(\d+)(\.\d+)?$`)

// DetectionError describes why a capability signal could not be evaluated.
type DetectionError struct {
	Family   string
	Property string
	Value    string
	Err      error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("capability detection (%s): property %s=%q: %v", e.Family, e.Property, e.Value, e.Err)
}

func (e *DetectionError) Unwrap() error {
	return e.Err
}

// Detector evaluates native multi-container support from runtime properties.
type Detector struct {
	props  interfaces.PropertySource
	logger zerolog.Logger
}

// NewDetector creates a new capability detector.
func NewDetector(props interfaces.PropertySource, logger zerolog.Logger) *Detector {
	if props == nil {
		props = MapSource{}
	}
	return &Detector{
		props:  props,
		logger: logging.Component(logger, "capability_detector"),
	}
}

// SupportsNativeMultiContainer reports whether the runtime loads secondary
// containers itself. It never fails: any detection error yields false so the
// resolver falls back to scanning supplemental containers.
func (d *Detector) SupportsNativeMultiContainer() bool {
	family := d.Family()

	var (
		supported bool
		err       error
	)
	switch family {
	case FamilyYunOS:
		supported, err = d.detectYunOS()
	default:
		supported, err = d.detectStandard()
	}

	if err != nil {
		d.logger.Debug().Err(err).Str("family", family).Msg("Capability detection failed, assuming no native multidex")
		return false
	}

	d.logger.Debug().Str("family", family).Bool("native_multidex", supported).Msg("Capability detected")
	return supported
}

// Family returns the runtime family whose version signal applies.
func (d *Detector) Family() string {
	if version, ok := d.props.Property(types.PropYunOSVersion); ok && strings.TrimSpace(version) != "" {
		return FamilyYunOS
	}
	if name, ok := d.props.Property(types.PropJavaVMName); ok && strings.Contains(strings.ToLower(name), "lemur") {
		return FamilyYunOS
	}
	return FamilyStandard
}

// detectYunOS compares the SDK level against the first level with native multidex.
func (d *Detector) detectYunOS() (bool, error) {
	sdk := types.SDKVersionBase

	if raw, ok := d.props.Property(types.PropSDKVersion); ok {
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return false, &DetectionError{Family: FamilyYunOS, Property: types.PropSDKVersion, Value: raw, Err: err}
		}
		sdk = v
	}

	return sdk >= types.SDKVersionLollipop, nil
}

// detectStandard compares the VM version against the first VM with native multidex.
func (d *Detector) detectStandard() (bool, error) {
	raw, ok := d.props.Property(types.PropJavaVMVersion)
	if !ok || raw == "" {
		return false, &DetectionError{Family: FamilyStandard, Property: types.PropJavaVMVersion, Err: fmt.Errorf("not set")}
	}

	m := vmVersionPattern.FindStringSubmatch(raw)
	if m == nil {
		return false, &DetectionError{Family: FamilyStandard, Property: types.PropJavaVMVersion, Value: raw, Err: fmt.Errorf("unrecognized version format")}
	}

	major, err := strconv.Atoi(m[1])
	if err != nil {
		return false, &DetectionError{Family: FamilyStandard, Property: types.PropJavaVMVersion, Value: raw, Err: err}
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return false, &DetectionError{Family: FamilyStandard, Property: types.PropJavaVMVersion, Value: raw, Err: err}
	}

	return major > types.VMWithMultidexVersionMajor ||
		(major == types.VMWithMultidexVersionMajor && minor >= types.VMWithMultidexVersionMinor), nil
}

// Fixed is a detector with a predetermined answer.
type Fixed bool

// SupportsNativeMultiContainer returns the fixed answer.
func (f Fixed) SupportsNativeMultiContainer() bool {
	return bool(f)
}
