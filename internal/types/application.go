package types

// ApplicationInfo describes where an installed application lives on disk.
type ApplicationInfo struct {
	// PackageName is the application identity, e.g. "com.example.app".
	PackageName string `json:"package_name" yaml:"package_name" mapstructure:"package_name"`
	// SourceDir is the absolute path of the primary container (base.apk).
	SourceDir string `json:"source_dir" yaml:"source_dir" mapstructure:"source_dir"`
	// DataDir is the application's private data directory.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
}

// Legacy multidex layout. Supplemental containers produced by split packaging
// live at <DataDir>/SecondaryFolderName/<base(SourceDir)>ExtractedNameExt<N>ExtractedSuffix.
const (
	// ExtractedNameExt is inserted between the primary file name and the index.
	ExtractedNameExt = ".classes"
	// ExtractedSuffix is the extension of extracted supplemental containers.
	ExtractedSuffix = ".zip"
	// SecondaryFolderName is relative to the private data directory.
	SecondaryFolderName = "code_cache/secondary-dexes"
	// ExtractionCompanionSuffix is appended to an extracted container path to
	// name the companion file written while loading it.
	ExtractionCompanionSuffix = ".tmp"

	// MultidexPrefsName is the preference store the split packaging step writes.
	MultidexPrefsName = "multidex.version"
	// MultidexKeyDexNumber holds the total number of containers produced.
	MultidexKeyDexNumber = "dex.number"
	// SharedPrefsFolderName is relative to the private data directory.
	SharedPrefsFolderName = "shared_prefs"
)

// Runtime property keys consulted by capability detection.
const (
	PropJavaVMVersion = "java.vm.version"
	PropJavaVMName    = "java.vm.name"
	PropYunOSVersion  = "ro.yunos.version"
	PropSDKVersion    = "ro.build.version.sdk"
)

// Version thresholds for native multi-container loading.
const (
	// VMWithMultidexVersionMajor and VMWithMultidexVersionMinor are the first
	// VM version (ART, 2.1) that loads every classesN.dex of an APK itself.
	VMWithMultidexVersionMajor = 2
	VMWithMultidexVersionMinor = 1

	// SDKVersionBase is assumed when the SDK level property is absent.
	SDKVersionBase = 1
	// SDKVersionLollipop is the first API level with native multidex.
	SDKVersionLollipop = 21
)
