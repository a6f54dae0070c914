package identity

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsentry/devsentry/pkg/document"
	"github.com/devsentry/devsentry/pkg/normalize"
)

const (
	accel = `Sensor: {Sensor name="LSM6DSR Accelerometer", vendor="STMicro", version=1, type=1, maxRange=78.4, power=0.17}`
	gyro  = `Sensor: {Sensor name="LSM6DSR Gyroscope", vendor="STMicro", version=1, type=4, maxRange=34.9, power=0.55}`
	mag   = `Sensor: {Sensor name="AK09918 Magnetometer", vendor="AKM", version=1, type=2, maxRange=4912.0, power=1.1}`
)

func platformDump(sensorLines ...string) document.PlatformDump {
	return document.PlatformDump{
		DRMInfo:        "MediaDrm Device Unique ID: ABCDEF",
		GLRendererInfo: "Renderer: Mali-G78 MP12 r32p1 | Vendor: ARM",
		MemoryInfo:     document.Blob(`{"ram_total_bytes": 8000000000, "internal_storage_total_bytes": 128000000000}`),
		SensorInfo:     strings.Join(sensorLines, "\n"),
	}
}

func TestPlatformFactors(t *testing.T) {
	doc := document.BuildPlatform(platformDump(gyro, accel, mag))
	assert.Equal(t, []string{
		"abcdef",
		"Mali-G78",
		"7",
		"119",
		"[AK09918 Magnetometer, LSM6DSR Accelerometer, LSM6DSR Gyroscope]",
	}, PlatformFactors(doc))
}

func TestPlatformSensorOrderDoesNotMatter(t *testing.T) {
	a := Platform(document.BuildPlatform(platformDump(accel, gyro, mag)))
	b := Platform(document.BuildPlatform(platformDump(mag, accel, gyro)))
	c := Platform(document.BuildPlatform(platformDump(gyro, mag, accel)))

	require.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestPlatformFactorChangesDigest(t *testing.T) {
	base := Platform(document.BuildPlatform(platformDump(accel, gyro)))

	changed := platformDump(accel, gyro)
	changed.GLRendererInfo = "Renderer: Adreno (TM) 650"
	assert.NotEqual(t, base, Platform(document.BuildPlatform(changed)))

	fewer := platformDump(accel)
	assert.NotEqual(t, base, Platform(document.BuildPlatform(fewer)))
}

func TestPlatformAbsorbsDriverVersion(t *testing.T) {
	a := platformDump(accel)
	b := platformDump(accel)
	b.GLRendererInfo = "Renderer: Mali-G78 MP12 r40p0 | Vendor: ARM"
	assert.Equal(t, Platform(document.BuildPlatform(a)), Platform(document.BuildPlatform(b)))
}

func TestNativeFactors(t *testing.T) {
	data, err := os.ReadFile("testdata/native_pixel.txt")
	require.NoError(t, err)
	doc := document.BuildNative(string(data))

	factors := NativeFactors(doc)
	require.Len(t, factors, 7)
	assert.Equal(t, "9F3A11B2C4D5E6F7", factors[0])
	assert.Equal(t, doc.NativeProbes.CPUStructure.CPUStructureHash, factors[1])
	assert.Equal(t, "7400", factors[2])
	assert.Equal(t, "4.19.157-perf-g1b2c3d4", factors[3])
	assert.Equal(t, "arm64-v8a", factors[4])
	assert.Equal(t, "5f1c9d2e7a0b4c3d", factors[6])

	id := Native(doc)
	assert.Equal(t, normalize.SHA256Hex(strings.Join(factors, "|")), id)
	assert.Equal(t, id, Native(document.BuildNative(string(data))))
}

func TestNativeAbsentFactors(t *testing.T) {
	doc := document.BuildNative("")
	assert.Equal(t, []string{"", "", "0", "", "", "", ""}, NativeFactors(doc))
	assert.Equal(t, normalize.SHA256Hex("||0||||"), Native(doc))
}

func TestNilDocuments(t *testing.T) {
	assert.Empty(t, Native(nil))
	assert.Empty(t, Platform(nil))
}
