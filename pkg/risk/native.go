package risk

import (
	"strings"

	"github.com/devsentry/devsentry/pkg/document"
	"github.com/devsentry/devsentry/pkg/normalize"
)

var (
	emulatorHardwareMarkers = []string{"goldfish", "ranchu", "vbox", "virtual"}
	emulatorKernelMarkers   = []string{"-generic", "ranchu"}
	genericBuildHosts       = []string{"ubuntu", "localhost", "android-build"}
	injectionTagMarkers     = []string{"ZYGISK", "MAGISK", "SUSPICIOUS_LIB"}

	criticalFiles = []string{document.PathCPUInfo, document.PathMeminfo, document.PathCPUPossible}
	rootArtifacts = []string{"/sbin/.magisk", "/system/xbin/su", "/system/bin/su"}
)

const (
	minCPUParts          = 2
	missingCriticalFloor = 2
)

// NativeEngine is the detector engine for native documents.
type NativeEngine = Engine[document.NativeDocument]

// NewNativeEngine returns the native detector set.
func NewNativeEngine(weights Weights) *NativeEngine {
	return NewEngine(weights,
		NewDetector("emulator", CategoryEmulator, detectNativeEmulator),
		NewDetector("root", CategoryRoot, detectNativeRoot),
		NewDetector("debug", CategoryDebug, detectNativeDebug),
		NewDetector("injection", CategoryInjection, detectNativeInjection),
		NewDetector("tags", CategoryTags, detectOtherTags),
	)
}

func detectNativeEmulator(doc *document.NativeDocument) Verdict {
	var v Verdict

	if p := doc.NativeProbes; p != nil && p.CPUStructure != nil {
		if m := containsAnyFold(p.CPUStructure.Hardware, emulatorHardwareMarkers); m != "" {
			v.flag(SeverityHigh, "Hardware string indicates emulator: %s", p.CPUStructure.Hardware)
		}
		if n := len(p.CPUStructure.CPUParts); n < minCPUParts {
			v.flag(SeveritySuspect, "Only %d distinct CPU part(s) reported", n)
		}
	}

	if k := doc.KernelProps; k != nil {
		if m := containsAny(k.UnameRelease, emulatorKernelMarkers); m != "" {
			v.flag(SeverityHigh, "Kernel release indicates emulator: %s", k.UnameRelease)
		}
	}

	if id := doc.DeviceIdentity; id != nil {
		if strings.Contains(id.BuildTags, "test-keys") {
			v.flag(SeverityMedium, "Build signed with test-keys")
		}
		if m := containsAnyFold(id.BuildHost, genericBuildHosts); m != "" {
			v.add(SeverityLow, "Build host looks generic: %s", id.BuildHost)
		}
	}

	missing := 0
	for _, path := range criticalFiles {
		if s, ok := doc.NativeProbes.Status(path); ok && s == normalize.StatusNotFound {
			missing++
		}
	}
	if missing >= missingCriticalFloor {
		v.flag(SeverityHigh, "%d critical system files missing", missing)
	}

	return v
}

func detectNativeRoot(doc *document.NativeDocument) Verdict {
	var v Verdict
	s := doc.SecurityStates
	if s == nil {
		return v
	}

	if isFalse(s.BootloaderLocked) {
		v.flag(SeverityHigh, "Bootloader unlocked")
	}
	if s.VBState != "" && !strings.EqualFold(s.VBState, "green") {
		v.flag(SeverityHigh, "Verified boot state is %s", s.VBState)
	}
	if strings.EqualFold(s.VBMetaDeviceState, "unlocked") {
		v.flag(SeverityHigh, "vbmeta device state is unlocked")
	}
	if isFalse(s.ROSecure) {
		v.flag(SeverityHigh, "ro.secure is disabled")
	}
	if isFalse(s.SELinuxEnforcing) {
		v.flag(SeverityMedium, "SELinux not enforcing (best-effort inference)")
	}
	if isTrue(s.OEMUnlockAllowed) {
		v.add(SeverityLow, "OEM unlocking allowed")
	}

	return v
}

func detectNativeDebug(doc *document.NativeDocument) Verdict {
	var v Verdict
	s := doc.SecurityStates
	if s == nil {
		return v
	}

	if isTrue(s.ADBEnabled) {
		v.flag(SeverityMedium, "ADB enabled in USB configuration")
	}
	if isTrue(s.Debuggable) {
		v.flag(SeverityHigh, "ro.debuggable is set")
	}
	if strings.EqualFold(s.ADBDServiceStatus, "running") {
		v.flag(SeverityMedium, "adbd service running")
	}
	if strings.Contains(s.USBState, "adb") {
		v.add(SeverityInfo, "USB state includes adb: %s", s.USBState)
	}

	return v
}

func detectNativeInjection(doc *document.NativeDocument) Verdict {
	var v Verdict

	for _, tag := range doc.RiskTags {
		if isInjectionTag(tag) {
			v.flag(SeverityHigh, "Injection risk tag: %s", tag)
		}
	}
	for _, path := range rootArtifacts {
		if s, ok := doc.NativeProbes.Status(path); ok && s == normalize.StatusOK {
			v.flag(SeverityHigh, "Root artifact accessible: %s", path)
		}
	}

	return v
}

// detectOtherTags flags tags the injection detector does not consume.
func detectOtherTags(doc *document.NativeDocument) Verdict {
	var v Verdict
	var other []string
	for _, tag := range doc.RiskTags {
		if !isInjectionTag(tag) {
			other = append(other, tag)
		}
	}
	if len(other) > 0 {
		v.flag(SeverityInfo, "Additional risk tags: %s", strings.Join(other, ", "))
	}
	return v
}

func isInjectionTag(tag string) bool {
	return containsAny(strings.ToUpper(tag), injectionTagMarkers) != ""
}

func containsAny(s string, markers []string) string {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return m
		}
	}
	return ""
}

func containsAnyFold(s string, markers []string) string {
	return containsAny(strings.ToLower(s), markers)
}

func isTrue(b *bool) bool  { return b != nil && *b }
func isFalse(b *bool) bool { return b != nil && !*b }
