package document

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsentry/devsentry/pkg/normalize"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(data)
}

func TestBuildNativePixel(t *testing.T) {
	doc := BuildNative(loadFixture(t, "native_pixel.txt"))

	id := doc.DeviceIdentity
	require.NotNil(t, id)
	assert.Equal(t, "kona", id.Board)
	assert.Equal(t, "redfin", id.Product)
	assert.Equal(t, "Pixel 5", id.Model)
	assert.Equal(t, "google/redfin/redfin:13/TQ3A.230901.001/10750268:user/release-keys", id.FingerprintString)
	assert.Equal(t, 33, id.SDKVersion)
	assert.EqualValues(t, 1691000000, id.BuildDateUTC)
	assert.Equal(t, "9F3A11B2C4D5E6F7", id.DRMDeviceID)
	assert.Equal(t, "arm64-v8a", id.CPUABI)

	sec := doc.SecurityStates
	require.NotNil(t, sec)
	require.NotNil(t, sec.BootloaderLocked)
	assert.True(t, *sec.BootloaderLocked)
	require.NotNil(t, sec.OEMUnlockAllowed)
	assert.False(t, *sec.OEMUnlockAllowed)
	assert.Equal(t, "green", sec.VBState)
	require.NotNil(t, sec.ADBEnabled)
	assert.False(t, *sec.ADBEnabled)
	require.NotNil(t, sec.SELinuxEnforcing)
	assert.True(t, *sec.SELinuxEnforcing)
	require.NotNil(t, sec.TrebleEnabled)
	assert.True(t, *sec.TrebleEnabled)

	probes := doc.NativeProbes
	require.NotNil(t, probes)
	require.NotNil(t, probes.CPUStructure)
	assert.Equal(t, []string{"0xd05", "0xd0d"}, probes.CPUStructure.CPUParts)
	assert.Equal(t, "Qualcomm Technologies, Inc SM7250", probes.CPUStructure.Hardware)
	assert.NotEmpty(t, probes.CPUStructure.CPUStructureHash)
	assert.NotEmpty(t, probes.MountsHash)
	assert.Equal(t, normalize.StatusPermDenied, probes.FileAccessMap[PathSELinuxEnforce])
	assert.Equal(t, normalize.StatusNotFound, probes.FileAccessMap["/system/bin/su"])
	assert.Equal(t, normalize.StatusOK, probes.FileAccessMap[PathCPUInfo])
	require.NotNil(t, probes.MemoryStructure)
	assert.EqualValues(t, 7400, probes.MemoryStructure.TotalRAMMB)
	assert.True(t, probes.MemoryStructure.HasSwap)
	assert.Equal(t, 3, probes.MemoryStructure.FieldCount)
	assert.Empty(t, probes.SuspiciousLibs)

	k := doc.KernelProps
	require.NotNil(t, k)
	assert.Equal(t, "4.19.157-perf-g1b2c3d4", k.UnameRelease)
	assert.Equal(t, "4.19.157", k.KernelVersion)
	assert.Equal(t, "aarch64", k.Machine)
	assert.EqualValues(t, 4096, k.PageSize)
	assert.Equal(t, 8, k.CPUCores)
	assert.Equal(t, normalize.BootIDUUID, k.BootIDFormat)
	assert.Equal(t, normalize.EntropyMedium, k.EntropyLevel)

	assert.Empty(t, doc.RiskTags)
}

func TestBuildNativeDeterministic(t *testing.T) {
	raw := loadFixture(t, "native_pixel.txt")

	a, err := Marshal(BuildNative(raw))
	require.NoError(t, err)
	b, err := Marshal(BuildNative(raw))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestBuildNativeEmpty(t *testing.T) {
	for _, raw := range []string{"", "just text\nno banners", "=== Unknown Section ===\nfoo\n"} {
		doc := BuildNative(raw)
		assert.True(t, doc.IsEmpty())

		data, err := Marshal(doc)
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(data))
	}
}

func TestBuildNativeRiskTags(t *testing.T) {
	raw := strings.Join([]string{
		"=== USB Config ===",
		"sys.usb.config = mtp,adb",
		"=== Security ===",
		"ro.boot.flash.locked = 0",
		"=== Zygisk Injection Detection ===",
		"Suspicious Libraries Found: 2",
		"Suspicious Libraries:",
		"  - /data/adb/modules/zygisk_shamiko/lib.so",
		"  - /debug_ramdisk/.magisk/lib.so",
		"=== Risk Tags ===",
		"CUSTOM_HOOK",
		"usb_debug_enabled",
	}, "\n")

	doc := BuildNative(raw)
	assert.Equal(t, []string{
		TagUSBDebugEnabled,
		TagBootloaderUnlocked,
		TagSuspiciousLibLoaded,
		TagZygiskDetected,
		TagMagiskDetected,
		"CUSTOM_HOOK",
	}, doc.RiskTags)

	require.NotNil(t, doc.NativeProbes)
	assert.Equal(t, []string{"/data/adb/modules/zygisk_shamiko/lib.so", "/debug_ramdisk/.magisk/lib.so"}, doc.NativeProbes.SuspiciousLibs)

	require.NotNil(t, doc.SecurityStates)
	require.NotNil(t, doc.SecurityStates.ADBEnabled)
	assert.True(t, *doc.SecurityStates.ADBEnabled)
	require.NotNil(t, doc.SecurityStates.BootloaderLocked)
	assert.False(t, *doc.SecurityStates.BootloaderLocked)
}

func TestBuildNativeInjectionLists(t *testing.T) {
	tests := []struct {
		name string
		body string
		tags []string
		libs []string
	}{
		{
			name: "clean device with non-system libraries",
			body: "Total Mappings: 1873\nLibrary Mappings: 412\nSuspicious Libraries Found: 0\n\n" +
				"No suspicious libraries detected.\n\n" +
				"Non-System Libraries (first 20):\n" +
				"  - /data/user/0/com.example/files/bin/helper\n" +
				"  - /data/app/~~x/com.topjohnwu.magisk-1/lib/arm64/libmagisk.so\n",
		},
		{
			name: "no libraries at all",
			body: "Suspicious Libraries Found: 0\n\nNo suspicious libraries detected.\n\n" +
				"Non-System Libraries (first 20):\n  [None found]\n",
		},
		{
			name: "names only count from the suspicious list",
			body: "Suspicious Libraries Found: 1\n\nSuspicious Libraries:\n" +
				"  - /data/adb/modules/zygisk_lsposed/lib.so\n\n" +
				"Non-System Libraries (first 20):\n" +
				"  - /data/adb/modules/zygisk_lsposed/lib.so\n" +
				"  - /debug_ramdisk/.magisk/libhelper.so\n",
			tags: []string{TagSuspiciousLibLoaded, TagZygiskDetected},
			libs: []string{"/data/adb/modules/zygisk_lsposed/lib.so"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := BuildNative("=== Zygisk Injection Detection ===\n\n" + tt.body)
			assert.Equal(t, tt.tags, doc.RiskTags)
			var libs []string
			if doc.NativeProbes != nil {
				libs = doc.NativeProbes.SuspiciousLibs
			}
			if tt.libs == nil {
				assert.Empty(t, libs)
			} else {
				assert.Equal(t, tt.libs, libs)
			}
		})
	}
}

func TestSELinuxEnforcingHeuristic(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		want  *bool
	}{
		{name: "denied", entry: "Path: /sys/fs/selinux/enforce\nExit Code: 1\nAccessible: false\n", want: boolPtr(true)},
		{name: "exit 1 but accessible", entry: "Path: /sys/fs/selinux/enforce\nExit Code: 1\nAccessible: true\n", want: nil},
		{name: "readable enforcing", entry: "Path: /sys/fs/selinux/enforce\nExit Code: 0\nAccessible: true\nContent: 1\n", want: boolPtr(true)},
		{name: "readable permissive", entry: "Path: /sys/fs/selinux/enforce\nExit Code: 0\nAccessible: true\nContent: 0\n", want: boolPtr(false)},
		{name: "missing", entry: "Path: /sys/fs/selinux/enforce\nExit Code: 2\nAccessible: false\n", want: nil},
		{name: "no enforce entry", entry: "Path: /proc/version\nExit Code: 0\nAccessible: true\n", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := BuildNative("=== Environment & Security ===\n" + tt.entry)
			var got *bool
			if doc.SecurityStates != nil {
				got = doc.SecurityStates.SELinuxEnforcing
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryStructureFallsBackToMemTotal(t *testing.T) {
	raw := "=== Hardware & Kernel ===\n" +
		"Path: /proc/meminfo\nExit Code: 0\nAccessible: true\n" +
		"Content: MemTotal:  3903400 kB\nSwapTotal:  0 kB\n---\n"

	doc := BuildNative(raw)
	require.NotNil(t, doc.NativeProbes)
	require.NotNil(t, doc.NativeProbes.MemoryStructure)
	assert.EqualValues(t, 3800, doc.NativeProbes.MemoryStructure.TotalRAMMB)
	assert.False(t, doc.NativeProbes.MemoryStructure.HasSwap)
}

func TestMountsHashIgnoresOrder(t *testing.T) {
	build := func(lines ...string) string {
		raw := "=== Mounts & Inputs ===\nPath: /proc/self/mountinfo\nExit Code: 0\nAccessible: true\nContent: " +
			strings.Join(lines, "\n") + "\n---\n"
		return BuildNative(raw).NativeProbes.MountsHash
	}

	a := build("22 1 253:0 / / ro - ext4 /dev/root ro", "24 22 0:21 / /proc rw - proc proc rw")
	b := build("90 12 0:21 / /proc rw - proc proc rw", "77 1 253:0 / / ro - ext4 /dev/root ro")
	assert.NotEmpty(t, a)
	assert.Equal(t, a, b)
}

func TestDecodeNativeRoundTrip(t *testing.T) {
	doc := BuildNative(loadFixture(t, "native_pixel.txt"))
	data, err := Marshal(doc)
	require.NoError(t, err)

	decoded, err := DecodeNative(data)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)

	_, err = DecodeNative([]byte("{not json"))
	assert.Error(t, err)
}
