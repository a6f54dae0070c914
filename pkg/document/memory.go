package document

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/devsentry/devsentry/pkg/normalize"
)

// Blob is a JSON payload carried either as an encoded string or inline.
type Blob string

// UnmarshalJSON accepts a JSON string or any inline JSON value.
func (b *Blob) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = Blob(s)
		return nil
	}
	if string(data) == "null" {
		*b = ""
		return nil
	}
	*b = Blob(data)
	return nil
}

type Memory struct {
	RAM             *RAM         `json:"ram,omitempty" yaml:"ram,omitempty"`
	MemoryClass     *MemoryClass `json:"memory_class,omitempty" yaml:"memory_class,omitempty"`
	InternalStorage *Storage     `json:"internal_storage,omitempty" yaml:"internal_storage,omitempty"`
	ExternalStorage *Storage     `json:"external_storage,omitempty" yaml:"external_storage,omitempty"`
	AppHeap         *AppHeap     `json:"app_heap,omitempty" yaml:"app_heap,omitempty"`
	AppInfo         *AppInfo     `json:"app_info,omitempty" yaml:"app_info,omitempty"`
}

type RAM struct {
	TotalGB                    float64  `json:"total_gb" yaml:"total_gb"`
	AvailableGB                *float64 `json:"available_gb,omitempty" yaml:"available_gb,omitempty"`
	UsedGB                     *float64 `json:"used_gb,omitempty" yaml:"used_gb,omitempty"`
	UsagePercent               *float64 `json:"usage_percent,omitempty" yaml:"usage_percent,omitempty"`
	LowMemory                  bool     `json:"low_memory" yaml:"low_memory"`
	ThresholdGB                *float64 `json:"threshold_gb,omitempty" yaml:"threshold_gb,omitempty"`
	HiddenAppThresholdGB       *float64 `json:"hidden_app_threshold_gb,omitempty" yaml:"hidden_app_threshold_gb,omitempty"`
	SecondaryServerThresholdGB *float64 `json:"secondary_server_threshold_gb,omitempty" yaml:"secondary_server_threshold_gb,omitempty"`
}

type MemoryClass struct {
	StandardMB int `json:"standard_mb,omitempty" yaml:"standard_mb,omitempty"`
	LargeMB    int `json:"large_mb,omitempty" yaml:"large_mb,omitempty"`
}

type Storage struct {
	TotalGB      *float64 `json:"total_gb,omitempty" yaml:"total_gb,omitempty"`
	AvailableGB  *float64 `json:"available_gb,omitempty" yaml:"available_gb,omitempty"`
	UsedGB       *float64 `json:"used_gb,omitempty" yaml:"used_gb,omitempty"`
	UsagePercent *float64 `json:"usage_percent,omitempty" yaml:"usage_percent,omitempty"`
	State        string   `json:"state,omitempty" yaml:"state,omitempty"`
}

type AppHeap struct {
	MaxMB        *float64 `json:"max_mb,omitempty" yaml:"max_mb,omitempty"`
	AllocatedMB  *float64 `json:"allocated_mb,omitempty" yaml:"allocated_mb,omitempty"`
	FreeMB       *float64 `json:"free_mb,omitempty" yaml:"free_mb,omitempty"`
	UsedMB       *float64 `json:"used_mb,omitempty" yaml:"used_mb,omitempty"`
	UsagePercent *float64 `json:"usage_percent,omitempty" yaml:"usage_percent,omitempty"`
}

type AppInfo struct {
	UID               int      `json:"uid,omitempty" yaml:"uid,omitempty"`
	MemoryTotalGB     *float64 `json:"memory_total_gb,omitempty" yaml:"memory_total_gb,omitempty"`
	MemoryAvailableGB *float64 `json:"memory_available_gb,omitempty" yaml:"memory_available_gb,omitempty"`
}

// memoryBlob reads loosely typed collector values.
type memoryBlob map[string]any

func (m memoryBlob) int64(key string) int64 {
	v, ok := m[key]
	if !ok || v == nil {
		return -1
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return -1
	}
	return n
}

func (m memoryBlob) str(key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func (m memoryBlob) boolean(key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	b, err := cast.ToBoolE(v)
	return err == nil && b
}

func (m memoryBlob) percent(key string) *float64 {
	s := strings.TrimSpace(strings.TrimSuffix(m.str(key), "%"))
	if s == "" {
		return nil
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return nil
	}
	return &f
}

func (m memoryBlob) gb(key string) *float64 {
	b := m.int64(key)
	if b <= 0 {
		return nil
	}
	v := normalize.BytesToGB(b)
	return &v
}

func (m memoryBlob) mb(key string) *float64 {
	b := m.int64(key)
	if b <= 0 {
		return nil
	}
	v := normalize.BytesToMB(b)
	return &v
}

const (
	notApplicable   = "N/A"
	externalMounted = "mounted"
)

func parseMemoryBlob(raw Blob) *Memory {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil
	}

	var m memoryBlob
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		log.Debug().
			Str("component", "document").
			Err(err).
			Msg("Malformed memory blob dropped")
		return nil
	}

	mem := &Memory{}

	if total := m.int64("ram_total_bytes"); total > 0 {
		ram := &RAM{
			TotalGB:      normalize.BytesToGB(total),
			AvailableGB:  m.gb("ram_available_bytes"),
			UsedGB:       m.gb("ram_used_bytes"),
			UsagePercent: m.percent("ram_usage_percent"),
			LowMemory:    m.boolean("ram_low_memory"),
			ThresholdGB:  m.gb("ram_threshold_bytes"),
		}
		if s := m.str("ram_hidden_app_threshold"); s != "" && s != notApplicable {
			ram.HiddenAppThresholdGB = m.gb("ram_hidden_app_threshold_bytes")
		}
		if s := m.str("ram_secondary_server_threshold"); s != "" && s != notApplicable {
			ram.SecondaryServerThresholdGB = m.gb("ram_secondary_server_threshold_bytes")
		}
		mem.RAM = ram
	}

	var mc MemoryClass
	if s := m.str("ram_memory_class"); s != "" && s != notApplicable {
		if n := m.int64("ram_memory_class_mb"); n > 0 {
			mc.StandardMB = int(n)
		}
	}
	if s := m.str("ram_large_memory_class"); s != "" && s != notApplicable {
		if n := m.int64("ram_large_memory_class_mb"); n > 0 {
			mc.LargeMB = int(n)
		}
	}
	if mc != (MemoryClass{}) {
		mem.MemoryClass = &mc
	}

	if m.int64("internal_storage_total_bytes") > 0 {
		mem.InternalStorage = &Storage{
			TotalGB:      m.gb("internal_storage_total_bytes"),
			AvailableGB:  m.gb("internal_storage_available_bytes"),
			UsedGB:       m.gb("internal_storage_used_bytes"),
			UsagePercent: m.percent("internal_storage_usage_percent"),
		}
	}

	// A usable external volume records its state only when it is not the
	// normal "mounted".
	state := m.str("external_storage_state")
	if m.int64("external_storage_total_bytes") > 0 {
		ext := &Storage{
			TotalGB:      m.gb("external_storage_total_bytes"),
			AvailableGB:  m.gb("external_storage_available_bytes"),
			UsedGB:       m.gb("external_storage_used_bytes"),
			UsagePercent: m.percent("external_storage_usage_percent"),
		}
		if state != externalMounted {
			ext.State = state
		}
		mem.ExternalStorage = ext
	} else if state != "" {
		mem.ExternalStorage = &Storage{State: state}
	}

	if m.int64("app_heap_max_bytes") > 0 {
		mem.AppHeap = &AppHeap{
			MaxMB:        m.mb("app_heap_max_bytes"),
			AllocatedMB:  m.mb("app_heap_total_bytes"),
			FreeMB:       m.mb("app_heap_free_bytes"),
			UsedMB:       m.mb("app_heap_used_bytes"),
			UsagePercent: m.percent("app_heap_usage_percent"),
		}
	}

	var info AppInfo
	if uid := m.int64("app_uid"); uid > 0 {
		info.UID = int(uid)
	}
	if m.int64("app_memory_total_bytes") > 0 {
		info.MemoryTotalGB = m.gb("app_memory_total_bytes")
		info.MemoryAvailableGB = m.gb("app_memory_available_bytes")
	}
	if info != (AppInfo{}) {
		mem.AppInfo = &info
	}

	if *mem == (Memory{}) {
		return nil
	}
	return mem
}

// TotalRAMGB returns the RAM size, or 0 when unknown.
func (d *PlatformDocument) TotalRAMGB() float64 {
	if d == nil || d.Hardware == nil || d.Hardware.Memory == nil || d.Hardware.Memory.RAM == nil {
		return 0
	}
	return d.Hardware.Memory.RAM.TotalGB
}

// TotalROMGB returns the internal storage size, or 0 when unknown.
func (d *PlatformDocument) TotalROMGB() float64 {
	if d == nil || d.Hardware == nil || d.Hardware.Memory == nil ||
		d.Hardware.Memory.InternalStorage == nil || d.Hardware.Memory.InternalStorage.TotalGB == nil {
		return 0
	}
	return *d.Hardware.Memory.InternalStorage.TotalGB
}
