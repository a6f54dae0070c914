package normalize

import (
	"regexp"
	"strconv"
)

var (
	batteryLevelPattern  = regexp.MustCompile(`Battery Level:\s*([\d.]+)%`)
	batteryStatusPattern = regexp.MustCompile(`Status:\s*([^\n]+)`)
	batteryPlugPattern   = regexp.MustCompile(`Plugged:\s*([^\n]+)`)
	batteryHealthPattern = regexp.MustCompile(`Health:\s*([^\n]+)`)
	batteryVoltPattern   = regexp.MustCompile(`Voltage:\s*(\d+)\s*mV`)
	batteryTempPattern   = regexp.MustCompile(`Temperature:\s*([\d.]+)°C`)
)

// Battery holds the fields extracted from a battery dump. Nil pointers and
// empty strings mean the field was not found.
type Battery struct {
	LevelPercent       *float64 `json:"level_percent,omitempty"`
	Status             string   `json:"status,omitempty"`
	Plugged            string   `json:"plugged,omitempty"`
	Health             string   `json:"health,omitempty"`
	VoltageV           *float64 `json:"voltage_v,omitempty"`
	TemperatureCelsius *float64 `json:"temperature_celsius,omitempty"`
}

// IsEmpty reports whether no field was extracted.
func (b Battery) IsEmpty() bool {
	return b == Battery{}
}

// ParseBattery applies the battery patterns to info.
func ParseBattery(info string) Battery {
	var b Battery
	b.LevelPercent = floatGroup(batteryLevelPattern, info)
	b.Status = cleanGroup(batteryStatusPattern, info)
	b.Plugged = cleanGroup(batteryPlugPattern, info)
	b.Health = cleanGroup(batteryHealthPattern, info)
	if mv := floatGroup(batteryVoltPattern, info); mv != nil {
		v := Round2(*mv / 1000)
		b.VoltageV = &v
	}
	b.TemperatureCelsius = floatGroup(batteryTempPattern, info)
	return b
}

func floatGroup(re *regexp.Regexp, s string) *float64 {
	raw := firstGroup(re, s)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

func cleanGroup(re *regexp.Regexp, s string) string {
	v, ok := Clean(firstGroup(re, s))
	if !ok {
		return ""
	}
	return v
}
