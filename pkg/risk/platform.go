package risk

import (
	"strings"

	"github.com/devsentry/devsentry/pkg/document"
)

var emulatorGPUMarkers = []string{"goldfish", "llvmpipe", "ranchu"}

const minSensorCount = 5

// PlatformEngine is the detector engine for platform documents.
type PlatformEngine = Engine[document.PlatformDocument]

// NewPlatformEngine returns the platform detector set. Platform analysis
// reports flags only; the score is not surfaced.
func NewPlatformEngine(weights Weights) *PlatformEngine {
	return NewEngine(weights,
		NewDetector("emulator", CategoryEmulator, detectPlatformEmulator),
		NewDetector("root", CategoryRoot, detectPlatformRoot),
		NewDetector("debug", CategoryDebug, detectPlatformDebug),
	)
}

func detectPlatformEmulator(doc *document.PlatformDocument) Verdict {
	var v Verdict

	if doc.Hardware != nil && doc.Hardware.GPU != nil {
		gpu := doc.Hardware.GPU
		for _, r := range []string{gpu.RendererRaw, gpu.Renderer} {
			if containsAnyFold(r, emulatorGPUMarkers) != "" {
				v.flag(SeverityHigh, "GPU renderer indicates emulator: %s", r)
				break
			}
		}
	}

	if doc.Sensors != nil {
		if n := len(doc.Sensors.SensorList); n < minSensorCount {
			v.flag(SeveritySuspect, "Only %d sensors reported", n)
		}
	}

	return v
}

// detectPlatformRoot only annotates the report; platform results carry no
// root flag.
func detectPlatformRoot(doc *document.PlatformDocument) Verdict {
	var v Verdict
	bp := buildProperties(doc)

	if locked, ok := bp.Lookup("ro.boot.flash.locked"); ok && locked != "1" {
		v.add(SeverityHigh, "Bootloader unlocked (ro.boot.flash.locked=%s)", locked)
	}
	if secure, ok := bp.Lookup("ro.secure"); ok && secure == "0" {
		v.add(SeverityHigh, "ro.secure is disabled")
	}
	if state, ok := bp.Lookup("ro.boot.verifiedbootstate"); ok && !strings.EqualFold(state, "green") {
		v.add(SeverityHigh, "Verified boot state is %s", state)
	}

	return v
}

func detectPlatformDebug(doc *document.PlatformDocument) Verdict {
	var v Verdict
	bp := buildProperties(doc)

	if cfg, ok := bp.Lookup("sys.usb.config"); ok && strings.Contains(cfg, "adb") {
		if strings.EqualFold(pluggedSource(doc), "USB") {
			v.flag(SeverityMedium, "ADB enabled while connected over USB")
		} else {
			v.add(SeverityInfo, "ADB enabled in USB configuration (%s)", cfg)
		}
	}
	if dbg, ok := bp.Lookup("ro.debuggable"); ok && dbg == "1" {
		v.flag(SeverityHigh, "ro.debuggable is set")
	}
	if adbd, ok := bp.Lookup("init.svc.adbd"); ok && strings.EqualFold(adbd, "running") {
		v.flag(SeverityMedium, "adbd service running")
	}

	return v
}

func buildProperties(doc *document.PlatformDocument) *document.BuildProperties {
	if doc.System == nil {
		return nil
	}
	return doc.System.BuildProperties
}

func pluggedSource(doc *document.PlatformDocument) string {
	if doc.Hardware == nil || doc.Hardware.Battery == nil {
		return ""
	}
	return strings.TrimSpace(doc.Hardware.Battery.Plugged)
}
