package document

import (
	"strings"

	"github.com/devsentry/devsentry/pkg/dump"
	"github.com/devsentry/devsentry/pkg/normalize"
)

// PlatformDump is the raw platform-tier fingerprint handed over by the
// collector: one string per field plus a JSON memory blob.
type PlatformDump struct {
	AndroidID        string `json:"android_id,omitempty"`
	SerialNumber     string `json:"serial_number,omitempty"`
	BluetoothAddress string `json:"bluetooth_address,omitempty"`
	DRMInfo          string `json:"drm_info,omitempty"`
	GLRendererInfo   string `json:"gl_renderer_info,omitempty"`
	MemoryInfo       Blob   `json:"memory_info,omitempty"`
	BatteryInfo      string `json:"battery_info,omitempty"`
	BuildInfo        string `json:"build_info,omitempty"`
	PhoneInfo        string `json:"phone_info,omitempty"`
	Settings         string `json:"settings,omitempty"`
	VolumeInfo       string `json:"volume_info,omitempty"`
	SensorInfo       string `json:"sensor_info,omitempty"`
	AccountInfo      string `json:"account_info,omitempty"`
	NativeInfo       string `json:"native_info,omitempty"`
}

// PlatformDocument is the canonical platform-tier document.
type PlatformDocument struct {
	Identity *PlatformIdentity `json:"identity,omitempty" yaml:"identity,omitempty"`
	Hardware *Hardware         `json:"hardware,omitempty" yaml:"hardware,omitempty"`
	System   *System           `json:"system,omitempty" yaml:"system,omitempty"`
	Media    *Media            `json:"media,omitempty" yaml:"media,omitempty"`
	Sensors  *Sensors          `json:"sensors,omitempty" yaml:"sensors,omitempty"`
	Account  *Account          `json:"account,omitempty" yaml:"account,omitempty"`
	Native   *NativeDocument   `json:"native,omitempty" yaml:"native,omitempty"`
}

// IsEmpty reports whether no category was derived.
func (d *PlatformDocument) IsEmpty() bool {
	return d == nil || *d == PlatformDocument{}
}

type PlatformIdentity struct {
	AndroidID        string `json:"android_id,omitempty" yaml:"android_id,omitempty"`
	SerialNumber     string `json:"serial_number,omitempty" yaml:"serial_number,omitempty"`
	BluetoothAddress string `json:"bluetooth_address,omitempty" yaml:"bluetooth_address,omitempty"`
	DRMDeviceID      string `json:"drm_device_id,omitempty" yaml:"drm_device_id,omitempty"`
}

type Hardware struct {
	GPU     *GPU               `json:"gpu,omitempty" yaml:"gpu,omitempty"`
	Memory  *Memory            `json:"memory,omitempty" yaml:"memory,omitempty"`
	Battery *normalize.Battery `json:"battery,omitempty" yaml:"battery,omitempty"`
}

// GPU holds the normalized renderer model and vendor. RendererRaw keeps
// the unnormalized renderer for marker matching.
type GPU struct {
	Renderer    string `json:"renderer,omitempty" yaml:"renderer,omitempty"`
	RendererRaw string `json:"renderer_raw,omitempty" yaml:"renderer_raw,omitempty"`
	Vendor      string `json:"vendor,omitempty" yaml:"vendor,omitempty"`
}

type System struct {
	BuildProperties *BuildProperties `json:"build_properties,omitempty" yaml:"build_properties,omitempty"`
	PhoneInfo       string           `json:"phone_info,omitempty" yaml:"phone_info,omitempty"`
	Settings        string           `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// BuildProperties groups build properties by concern.
type BuildProperties struct {
	Security     map[string]string `json:"security,omitempty" yaml:"security,omitempty"`
	USB          map[string]string `json:"usb,omitempty" yaml:"usb,omitempty"`
	Version      map[string]string `json:"version,omitempty" yaml:"version,omitempty"`
	Fingerprints map[string]string `json:"fingerprints,omitempty" yaml:"fingerprints,omitempty"`
	BuildIDs     map[string]string `json:"build_ids,omitempty" yaml:"build_ids,omitempty"`
	BuildDates   map[string]int64  `json:"build_dates,omitempty" yaml:"build_dates,omitempty"`
	Other        map[string]string `json:"other,omitempty" yaml:"other,omitempty"`
}

// Lookup finds key in any string group.
func (b *BuildProperties) Lookup(key string) (string, bool) {
	if b == nil {
		return "", false
	}
	for _, group := range []map[string]string{b.Security, b.USB, b.Version, b.Fingerprints, b.BuildIDs, b.Other} {
		if v, ok := group[key]; ok {
			return v, true
		}
	}
	return "", false
}

type Media struct {
	VolumeInfo string `json:"volume_info,omitempty" yaml:"volume_info,omitempty"`
	DRMInfo    string `json:"drm_info,omitempty" yaml:"drm_info,omitempty"`
}

type Sensors struct {
	SensorList []normalize.Sensor `json:"sensor_list" yaml:"sensor_list"`
}

type Account struct {
	AccountInfo string `json:"account_info,omitempty" yaml:"account_info,omitempty"`
}

// BuildPlatform cleans a platform-tier dump into its canonical document.
func BuildPlatform(raw PlatformDump) *PlatformDocument {
	doc := &PlatformDocument{}

	contain("identity", func() { doc.Identity = buildPlatformIdentity(raw) })
	contain("hardware", func() { doc.Hardware = buildHardware(raw) })
	contain("system", func() { doc.System = buildSystem(raw) })
	contain("media", func() { doc.Media = buildMedia(raw) })
	contain("sensors", func() { doc.Sensors = buildSensors(raw) })
	contain("account", func() { doc.Account = buildAccount(raw) })
	contain("native", func() {
		if strings.TrimSpace(raw.NativeInfo) == "" {
			return
		}
		if n := BuildNative(raw.NativeInfo); !n.IsEmpty() {
			doc.Native = n
		}
	})

	return doc
}

func buildPlatformIdentity(raw PlatformDump) *PlatformIdentity {
	id := PlatformIdentity{
		AndroidID:        cleaned(raw.AndroidID),
		SerialNumber:     cleaned(raw.SerialNumber),
		BluetoothAddress: cleaned(raw.BluetoothAddress),
		DRMDeviceID:      normalize.ExtractDRMID(raw.DRMInfo),
	}
	if id == (PlatformIdentity{}) {
		return nil
	}
	return &id
}

func buildHardware(raw PlatformDump) *Hardware {
	hw := &Hardware{}

	if !normalize.IsErrorString(raw.GLRendererInfo) {
		rendererRaw := normalize.ExtractRenderer(raw.GLRendererInfo)
		gpu := GPU{
			Renderer:    cleaned(normalize.GPUModel(rendererRaw)),
			RendererRaw: cleaned(rendererRaw),
			Vendor:      cleaned(normalize.ExtractVendor(raw.GLRendererInfo)),
		}
		if gpu != (GPU{}) {
			hw.GPU = &gpu
		}
	}

	hw.Memory = parseMemoryBlob(raw.MemoryInfo)

	if b := normalize.ParseBattery(raw.BatteryInfo); !b.IsEmpty() {
		hw.Battery = &b
	}

	if *hw == (Hardware{}) {
		return nil
	}
	return hw
}

func buildSystem(raw PlatformDump) *System {
	sys := System{
		BuildProperties: groupBuildProperties(raw.BuildInfo),
		PhoneInfo:       cleaned(raw.PhoneInfo),
		Settings:        cleaned(raw.Settings),
	}
	if sys == (System{}) {
		return nil
	}
	return &sys
}

var otherBuildKeys = map[string]struct{}{
	"ro.build.description": {},
	"ro.build.display.id":  {},
	"ro.build.host":        {},
	"ro.build.user":        {},
}

// groupBuildProperties sorts "key = value" lines into concern groups; a
// key lands in the first group whose rule it matches.
func groupBuildProperties(info string) *BuildProperties {
	if normalize.IsErrorString(info) {
		return nil
	}

	bp := &BuildProperties{}
	put := func(group *map[string]string, key, value string) {
		if *group == nil {
			*group = map[string]string{}
		}
		(*group)[key] = value
	}

	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "===") || strings.HasSuffix(line, "===") {
			continue
		}
		key, raw, ok := strings.Cut(line, " = ")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		v := dump.ParseValue(raw)
		if !v.Present() || normalize.IsErrorString(v.Text()) {
			continue
		}
		value := v.Text()

		switch {
		case strings.Contains(key, "usb"):
			put(&bp.USB, key, value)
		case strings.Contains(key, "secure"), strings.Contains(key, "debuggable"),
			strings.Contains(key, "adbd"), strings.Contains(key, "unlock"),
			strings.Contains(key, "flash.locked"), strings.Contains(key, "verifiedbootstate"):
			put(&bp.Security, key, value)
		case strings.Contains(key, "fingerprint"):
			put(&bp.Fingerprints, key, value)
		case strings.Contains(key, "build.id") && !strings.Contains(key, "display"):
			put(&bp.BuildIDs, key, value)
		case strings.Contains(key, "date.utc"):
			if ts, ok := v.Int(); ok {
				if bp.BuildDates == nil {
					bp.BuildDates = map[string]int64{}
				}
				bp.BuildDates[key] = ts
			}
		case strings.Contains(key, "version"):
			put(&bp.Version, key, value)
		default:
			_, named := otherBuildKeys[key]
			if named || strings.Contains(key, "baseband") || strings.Contains(key, "security_patch") {
				put(&bp.Other, key, value)
			}
		}
	}

	if bp.Security == nil && bp.USB == nil && bp.Version == nil && bp.Fingerprints == nil &&
		bp.BuildIDs == nil && bp.BuildDates == nil && bp.Other == nil {
		return nil
	}
	return bp
}

func buildMedia(raw PlatformDump) *Media {
	m := Media{
		VolumeInfo: cleaned(raw.VolumeInfo),
		DRMInfo:    cleaned(raw.DRMInfo),
	}
	if m == (Media{}) {
		return nil
	}
	return &m
}

func buildSensors(raw PlatformDump) *Sensors {
	if normalize.IsErrorString(raw.SensorInfo) {
		return nil
	}
	return &Sensors{SensorList: normalize.ParseSensors(raw.SensorInfo)}
}

func buildAccount(raw PlatformDump) *Account {
	info := cleaned(raw.AccountInfo)
	if info == "" {
		return nil
	}
	return &Account{AccountInfo: info}
}

func cleaned(s string) string {
	v, _ := normalize.Clean(s)
	return v
}
