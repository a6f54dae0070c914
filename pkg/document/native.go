package document

import (
	"sort"
	"strings"

	"github.com/devsentry/devsentry/pkg/dump"
	"github.com/devsentry/devsentry/pkg/normalize"
)

// Probe paths the native builder reads.
const (
	PathCPUInfo        = "/proc/cpuinfo"
	PathMeminfo        = "/proc/meminfo"
	PathMountInfo      = "/proc/self/mountinfo"
	PathSELinuxEnforce = "/sys/fs/selinux/enforce"
	PathBootID         = "/proc/sys/kernel/random/boot_id"
	PathEntropyAvail   = "/proc/sys/kernel/random/entropy_avail"
	PathCPUPossible    = "/sys/devices/system/cpu/possible"
)

// Risk tags derived while building the native document.
const (
	TagUSBDebugEnabled     = "USB_DEBUG_ENABLED"
	TagBootloaderUnlocked  = "BOOTLOADER_UNLOCKED"
	TagSuspiciousLibLoaded = "SUSPICIOUS_LIB_LOADED"
	TagZygiskDetected      = "ZYGISK_DETECTED"
	TagMagiskDetected      = "MAGISK_DETECTED"
)

// NativeDocument is the canonical native-tier document.
type NativeDocument struct {
	DeviceIdentity *DeviceIdentity `json:"device_identity,omitempty" yaml:"device_identity,omitempty"`
	SecurityStates *SecurityStates `json:"security_states,omitempty" yaml:"security_states,omitempty"`
	NativeProbes   *NativeProbes   `json:"native_probes,omitempty" yaml:"native_probes,omitempty"`
	KernelProps    *KernelProps    `json:"kernel_props,omitempty" yaml:"kernel_props,omitempty"`
	RiskTags       []string        `json:"risk_tags,omitempty" yaml:"risk_tags,omitempty"`
}

// IsEmpty reports whether no category was derived.
func (d *NativeDocument) IsEmpty() bool {
	return d == nil || (d.DeviceIdentity == nil && d.SecurityStates == nil &&
		d.NativeProbes == nil && d.KernelProps == nil && len(d.RiskTags) == 0)
}

// DeviceIdentity is the allow-listed build and hardware identity.
type DeviceIdentity struct {
	Board             string `json:"board,omitempty" yaml:"board,omitempty"`
	Product           string `json:"product,omitempty" yaml:"product,omitempty"`
	Model             string `json:"model,omitempty" yaml:"model,omitempty"`
	FingerprintString string `json:"fingerprint_string,omitempty" yaml:"fingerprint_string,omitempty"`
	BuildID           string `json:"build_id,omitempty" yaml:"build_id,omitempty"`
	DisplayID         string `json:"display_id,omitempty" yaml:"display_id,omitempty"`
	BuildTags         string `json:"build_tags,omitempty" yaml:"build_tags,omitempty"`
	BuildDescription  string `json:"build_description,omitempty" yaml:"build_description,omitempty"`
	SecurityPatch     string `json:"security_patch,omitempty" yaml:"security_patch,omitempty"`
	SDKVersion        int    `json:"sdk_version,omitempty" yaml:"sdk_version,omitempty"`
	Incremental       string `json:"incremental,omitempty" yaml:"incremental,omitempty"`
	CPUABI            string `json:"cpu_abi,omitempty" yaml:"cpu_abi,omitempty"`
	Baseband          string `json:"baseband,omitempty" yaml:"baseband,omitempty"`
	DRMDeviceID       string `json:"drm_device_id,omitempty" yaml:"drm_device_id,omitempty"`
	BuildHost         string `json:"build_host,omitempty" yaml:"build_host,omitempty"`
	BuildUser         string `json:"build_user,omitempty" yaml:"build_user,omitempty"`
	BuildDateUTC      int64  `json:"build_date_utc,omitempty" yaml:"build_date_utc,omitempty"`
}

// SecurityStates holds boot, verified-boot, SELinux and ADB state.
// Pointer fields are nil when the source property was not reported.
type SecurityStates struct {
	BootloaderLocked  *bool  `json:"bootloader_locked,omitempty" yaml:"bootloader_locked,omitempty"`
	OEMUnlockAllowed  *bool  `json:"oem_unlock_allowed,omitempty" yaml:"oem_unlock_allowed,omitempty"`
	VBState           string `json:"vb_state,omitempty" yaml:"vb_state,omitempty"`
	VBMetaDeviceState string `json:"vbmeta_device_state,omitempty" yaml:"vbmeta_device_state,omitempty"`
	VBMetaDigest      string `json:"vbmeta_digest,omitempty" yaml:"vbmeta_digest,omitempty"`
	ROSecure          *bool  `json:"ro_secure,omitempty" yaml:"ro_secure,omitempty"`
	Debuggable        *bool  `json:"debuggable,omitempty" yaml:"debuggable,omitempty"`
	ADBEnabled        *bool  `json:"adb_enabled,omitempty" yaml:"adb_enabled,omitempty"`
	ADBDServiceStatus string `json:"adbd_service_status,omitempty" yaml:"adbd_service_status,omitempty"`
	USBState          string `json:"usb_state,omitempty" yaml:"usb_state,omitempty"`
	// SELinuxEnforcing is inferred from the enforce probe. A denied read is
	// taken as enforcing; this is a heuristic, not a verified signal.
	SELinuxEnforcing *bool `json:"selinux_enforcing,omitempty" yaml:"selinux_enforcing,omitempty"`
	TrebleEnabled    *bool `json:"treble_enabled,omitempty" yaml:"treble_enabled,omitempty"`
}

// NativeProbes holds the structural summaries of probed files.
type NativeProbes struct {
	CPUStructure    *CPUStructure               `json:"cpu_structure,omitempty" yaml:"cpu_structure,omitempty"`
	MountsHash      string                      `json:"mounts_hash,omitempty" yaml:"mounts_hash,omitempty"`
	FileAccessMap   map[string]normalize.Status `json:"file_access_map,omitempty" yaml:"file_access_map,omitempty"`
	MemoryStructure *MemoryStructure            `json:"memory_structure,omitempty" yaml:"memory_structure,omitempty"`
	SuspiciousLibs  []string                    `json:"suspicious_libs,omitempty" yaml:"suspicious_libs,omitempty"`
}

func (p *NativeProbes) isEmpty() bool {
	return p.CPUStructure == nil && p.MountsHash == "" && len(p.FileAccessMap) == 0 &&
		p.MemoryStructure == nil && len(p.SuspiciousLibs) == 0
}

// Status returns the recorded status of path.
func (p *NativeProbes) Status(path string) (normalize.Status, bool) {
	if p == nil {
		return "", false
	}
	s, ok := p.FileAccessMap[path]
	return s, ok
}

// CPUStructure summarizes /proc/cpuinfo.
type CPUStructure struct {
	CPUParts         []string `json:"cpu_parts" yaml:"cpu_parts"`
	FeaturesHash     string   `json:"features_hash,omitempty" yaml:"features_hash,omitempty"`
	Hardware         string   `json:"hardware,omitempty" yaml:"hardware,omitempty"`
	CPUStructureHash string   `json:"cpu_structure_hash" yaml:"cpu_structure_hash"`
}

// MemoryStructure summarizes /proc/meminfo.
type MemoryStructure struct {
	TotalRAMMB int64 `json:"total_ram_mb,omitempty" yaml:"total_ram_mb,omitempty"`
	HasSwap    bool  `json:"has_swap" yaml:"has_swap"`
	FieldCount int   `json:"field_count" yaml:"field_count"`
}

// KernelProps holds kernel and system configuration properties.
type KernelProps struct {
	UnameRelease  string `json:"uname_release,omitempty" yaml:"uname_release,omitempty"`
	KernelVersion string `json:"kernel_version,omitempty" yaml:"kernel_version,omitempty"`
	Machine       string `json:"machine,omitempty" yaml:"machine,omitempty"`
	PageSize      int64  `json:"page_size,omitempty" yaml:"page_size,omitempty"`
	PhysPages     int64  `json:"phys_pages,omitempty" yaml:"phys_pages,omitempty"`
	CPUCores      int    `json:"cpu_cores,omitempty" yaml:"cpu_cores,omitempty"`
	BootIDFormat  string `json:"boot_id_format,omitempty" yaml:"boot_id_format,omitempty"`
	EntropyLevel  string `json:"entropy_level,omitempty" yaml:"entropy_level,omitempty"`
}

// BuildNative parses a native-tier dump into its canonical document.
func BuildNative(raw string) *NativeDocument {
	return FromNativeDump(dump.ParseNative(raw))
}

// FromNativeDump assembles the canonical document from a parsed dump.
// Each category is built independently; a failing category is dropped.
func FromNativeDump(n *dump.Native) *NativeDocument {
	doc := &NativeDocument{}
	if n == nil {
		return doc
	}

	contain("device_identity", func() { doc.DeviceIdentity = buildDeviceIdentity(n) })
	contain("security_states", func() { doc.SecurityStates = buildSecurityStates(n) })
	contain("native_probes", func() { doc.NativeProbes = buildNativeProbes(n) })
	contain("kernel_props", func() { doc.KernelProps = buildKernelProps(n) })
	contain("risk_tags", func() { doc.RiskTags = buildRiskTags(n) })

	return doc
}

func buildDeviceIdentity(n *dump.Native) *DeviceIdentity {
	p := n.Properties
	id := DeviceIdentity{
		Board:             p.Get("ro.board.platform").Text(),
		Product:           p.First("ro.product.name", "ro.product.device").Text(),
		Model:             p.Get("ro.product.model").Text(),
		FingerprintString: p.First("ro.build.fingerprint", "ro.build.build.fingerprint").Text(),
		BuildID:           p.Get("ro.build.id").Text(),
		DisplayID:         p.Get("ro.build.display.id").Text(),
		BuildTags:         p.Get("ro.build.tags").Text(),
		BuildDescription:  p.Get("ro.build.description").Text(),
		SecurityPatch:     p.Get("ro.build.version.security_patch").Text(),
		Incremental:       p.Get("ro.build.version.incremental").Text(),
		CPUABI:            p.Get("ro.product.cpu.abi").Text(),
		Baseband:          p.Get("gsm.version.baseband").Text(),
		DRMDeviceID:       n.DRMID,
		BuildHost:         p.Get("ro.build.host").Text(),
		BuildUser:         p.Get("ro.build.user").Text(),
	}
	if sdk, ok := p.Get("ro.build.version.sdk").Int(); ok {
		id.SDKVersion = int(sdk)
	}
	if date, ok := p.Get("ro.build.date.utc").Int(); ok {
		id.BuildDateUTC = date
	}

	if id == (DeviceIdentity{}) {
		return nil
	}
	return &id
}

func buildSecurityStates(n *dump.Native) *SecurityStates {
	p := n.Properties
	s := SecurityStates{
		BootloaderLocked:  flagEquals(p.Get("ro.boot.flash.locked"), "1"),
		OEMUnlockAllowed:  flagEquals(p.Get("sys.oem_unlock_allowed"), "1"),
		VBState:           p.Get("ro.boot.verifiedbootstate").Text(),
		VBMetaDeviceState: p.Get("ro.boot.vbmeta.device_state").Text(),
		VBMetaDigest:      p.Get("ro.boot.vbmeta.digest").Text(),
		ROSecure:          flagEquals(p.Get("ro.secure"), "1"),
		Debuggable:        flagEquals(p.Get("ro.debuggable"), "1"),
		ADBDServiceStatus: p.Get("init.svc.adbd").Text(),
		USBState:          p.Get("sys.usb.state").Text(),
		SELinuxEnforcing:  selinuxEnforcing(n.Probes),
		TrebleEnabled:     flagEquals(p.Get("ro.treble.enabled"), "true"),
	}
	if cfg := p.Get("sys.usb.config"); cfg.Present() {
		s.ADBEnabled = boolPtr(cfg.Contains("adb"))
	}

	if s == (SecurityStates{}) {
		return nil
	}
	return &s
}

// selinuxEnforcing applies the enforce-file heuristic: a permission-denied
// read counts as enforcing, a readable file is trusted for its content.
func selinuxEnforcing(probes dump.Probes) *bool {
	rec, ok := probes.Lookup(PathSELinuxEnforce)
	if !ok {
		return nil
	}
	switch normalize.ProbeStatus(rec.Accessible, rec.ExitCode) {
	case normalize.StatusOK:
		return boolPtr(strings.TrimSpace(rec.Content) == "1")
	case normalize.StatusPermDenied:
		// Only an unreadable enforce node hints at enforcing.
		if rec.Accessible {
			return nil
		}
		return boolPtr(true)
	default:
		return nil
	}
}

func buildNativeProbes(n *dump.Native) *NativeProbes {
	probes := &NativeProbes{}

	if rec, ok := okProbe(n.Probes, PathCPUInfo); ok {
		info := normalize.ParseCPUInfo(rec.Content)
		parts := info.Parts
		if parts == nil {
			parts = []string{}
		}
		probes.CPUStructure = &CPUStructure{
			CPUParts:         parts,
			FeaturesHash:     info.FeaturesHash(),
			Hardware:         info.Hardware,
			CPUStructureHash: info.StructureHash(),
		}
	}

	if rec, ok := okProbe(n.Probes, PathMountInfo); ok {
		probes.MountsHash = normalize.MountsHash(rec.Content)
	}

	if len(n.Probes) > 0 {
		probes.FileAccessMap = make(map[string]normalize.Status, len(n.Probes))
		for path, rec := range n.Probes {
			probes.FileAccessMap[path] = normalize.ProbeStatus(rec.Accessible, rec.ExitCode)
		}
	}

	if rec, ok := okProbe(n.Probes, PathMeminfo); ok {
		mi := normalize.ParseMeminfo(rec.Content)
		ms := &MemoryStructure{HasSwap: mi.HasSwap, FieldCount: mi.FieldCount}
		if mb, ok := n.Sysconf.TotalMemoryMB.Int(); ok && mb > 0 {
			ms.TotalRAMMB = normalize.Floor100MB(mb)
		} else if mi.MemTotalKB > 0 {
			ms.TotalRAMMB = normalize.Floor100MB(mi.MemTotalKB / 1024)
		}
		probes.MemoryStructure = ms
	}

	if len(n.Injection.Libraries) > 0 {
		libs := append([]string(nil), n.Injection.Libraries...)
		sort.Strings(libs)
		probes.SuspiciousLibs = dedupSorted(libs)
	}

	if probes.isEmpty() {
		return nil
	}
	return probes
}

func buildKernelProps(n *dump.Native) *KernelProps {
	k := KernelProps{
		UnameRelease: n.Uname.Release,
		Machine:      n.Uname.Machine,
	}
	if v, ok := normalize.KernelVersion(n.Uname.Release); ok {
		k.KernelVersion = v
	}
	if v, ok := n.Sysconf.PageSize.Int(); ok {
		k.PageSize = v
	}
	if v, ok := n.Sysconf.PhysPages.Int(); ok {
		k.PhysPages = v
	}
	if v, ok := n.Sysconf.CPUCores.Int(); ok {
		k.CPUCores = int(v)
	}
	if rec, ok := okProbe(n.Probes, PathBootID); ok && rec.Content != "" {
		k.BootIDFormat = normalize.BootIDFormat(rec.Content)
	}
	if rec, ok := okProbe(n.Probes, PathEntropyAvail); ok {
		if level, ok := normalize.EntropyLevel(rec.Content); ok {
			k.EntropyLevel = level
		}
	}

	if k == (KernelProps{}) {
		return nil
	}
	return &k
}

func buildRiskTags(n *dump.Native) []string {
	var tags []string
	p := n.Properties

	if p.Get("sys.usb.config").Contains("adb") {
		tags = append(tags, TagUSBDebugEnabled)
	}
	if locked := p.Get("ro.boot.flash.locked"); locked.Present() && !locked.Is("1") {
		tags = append(tags, TagBootloaderUnlocked)
	}

	if n.Injection.Count > 0 {
		tags = append(tags, TagSuspiciousLibLoaded)
	}
	for _, lib := range n.Injection.Libraries {
		lower := strings.ToLower(lib)
		if strings.Contains(lower, "zygisk") {
			tags = append(tags, TagZygiskDetected)
		}
		if strings.Contains(lower, "magisk") {
			tags = append(tags, TagMagiskDetected)
		}
	}

	tags = append(tags, n.Tags...)
	return dedupStable(tags)
}

func okProbe(probes dump.Probes, path string) (dump.ProbeRecord, bool) {
	rec, ok := probes.Lookup(path)
	if !ok || normalize.ProbeStatus(rec.Accessible, rec.ExitCode) != normalize.StatusOK {
		return dump.ProbeRecord{}, false
	}
	return rec, true
}

func flagEquals(v dump.Value, want string) *bool {
	if !v.Present() {
		return nil
	}
	return boolPtr(v.Is(want))
}

func boolPtr(b bool) *bool { return &b }

func dedupStable(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

func dedupSorted(items []string) []string {
	out := items[:0]
	for i, it := range items {
		if i > 0 && it == items[i-1] {
			continue
		}
		out = append(out, it)
	}
	return out
}
