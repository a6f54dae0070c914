// Package identity derives stable device identifiers from canonical
// documents. Each identifier is a SHA-256 digest over a fixed, ordered,
// pipe-joined list of factors chosen to survive minor firmware changes.
package identity

import (
	"strconv"
	"strings"

	"github.com/devsentry/devsentry/pkg/document"
	"github.com/devsentry/devsentry/pkg/normalize"
)

const factorSeparator = "|"

// PlatformFactors returns the ordered platform-tier identity factors:
// DRM id, GPU model, RAM in whole GB, ROM in whole GB, sorted sensor names.
func PlatformFactors(doc *document.PlatformDocument) []string {
	var drm, gpu string
	var sensors []normalize.Sensor

	if doc.Identity != nil {
		drm = doc.Identity.DRMDeviceID
	}
	if doc.Hardware != nil && doc.Hardware.GPU != nil {
		gpu = doc.Hardware.GPU.Renderer
	}
	if doc.Sensors != nil {
		sensors = doc.Sensors.SensorList
	}

	return []string{
		drm,
		gpu,
		strconv.FormatInt(normalize.RoundGB(doc.TotalRAMGB()), 10),
		strconv.FormatInt(normalize.RoundGB(doc.TotalROMGB()), 10),
		normalize.ListString(normalize.SortedSensorNames(sensors)),
	}
}

// NativeFactors returns the ordered native-tier identity factors: DRM id,
// CPU structure hash, RAM rounded to 100 MB, kernel release, CPU ABI,
// build fingerprint and vbmeta digest.
func NativeFactors(doc *document.NativeDocument) []string {
	var drm, cpuHash, release, abi, fingerprint, vbmeta string
	var ramMB int64

	if id := doc.DeviceIdentity; id != nil {
		drm = id.DRMDeviceID
		abi = id.CPUABI
		fingerprint = id.FingerprintString
	}
	if p := doc.NativeProbes; p != nil {
		if p.CPUStructure != nil {
			cpuHash = p.CPUStructure.CPUStructureHash
		}
		if p.MemoryStructure != nil {
			ramMB = p.MemoryStructure.TotalRAMMB
		}
	}
	if doc.KernelProps != nil {
		release = doc.KernelProps.UnameRelease
	}
	if doc.SecurityStates != nil {
		vbmeta = doc.SecurityStates.VBMetaDigest
	}

	return []string{
		drm,
		cpuHash,
		strconv.FormatInt(normalize.Round100MB(ramMB), 10),
		release,
		abi,
		fingerprint,
		vbmeta,
	}
}

// Platform returns the platform-tier device id, or "" for a nil document.
func Platform(doc *document.PlatformDocument) string {
	if doc == nil {
		return ""
	}
	return digest(PlatformFactors(doc))
}

// Native returns the native-tier device id, or "" for a nil document.
func Native(doc *document.NativeDocument) string {
	if doc == nil {
		return ""
	}
	return digest(NativeFactors(doc))
}

func digest(factors []string) string {
	return normalize.SHA256Hex(strings.Join(factors, factorSeparator))
}
