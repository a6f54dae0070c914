package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	sensorLinePrefix = "Sensor:"
	sensorOpen       = "{Sensor "
)

var sensorAttrPatterns = map[string]*regexp.Regexp{}

func init() {
	for _, key := range []string{"name", "vendor", "type", "version", "maxRange", "power"} {
		sensorAttrPatterns[key] = regexp.MustCompile(key + `="([^"]+)"|` + key + `=([^,}\s]+)`)
	}
}

// Sensor is one entry of the platform sensor list.
type Sensor struct {
	Name     string   `json:"name"`
	Vendor   string   `json:"vendor,omitempty"`
	Type     *int     `json:"type,omitempty"`
	Version  *int     `json:"version,omitempty"`
	MaxRange *float64 `json:"max_range,omitempty"`
	Power    *float64 `json:"power,omitempty"`
}

// ParseSensors parses every "Sensor: {Sensor ...}" line of info. Records
// without a name are dropped; numeric attributes that fail to parse are
// omitted.
func ParseSensors(info string) []Sensor {
	sensors := []Sensor{}
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, sensorLinePrefix) {
			continue
		}
		payload := line
		if i := strings.Index(line, sensorOpen); i >= 0 {
			payload = line[i+len(sensorOpen):]
		}
		payload = strings.TrimSuffix(strings.TrimSpace(payload), "}")

		s := Sensor{
			Name:   sensorAttr(payload, "name"),
			Vendor: sensorAttr(payload, "vendor"),
		}
		if s.Name == "" {
			continue
		}
		if n, err := strconv.Atoi(sensorAttr(payload, "type")); err == nil {
			s.Type = &n
		}
		if n, err := strconv.Atoi(sensorAttr(payload, "version")); err == nil {
			s.Version = &n
		}
		if f, err := strconv.ParseFloat(sensorAttr(payload, "maxRange"), 64); err == nil {
			s.MaxRange = &f
		}
		if f, err := strconv.ParseFloat(sensorAttr(payload, "power"), 64); err == nil {
			s.Power = &f
		}
		sensors = append(sensors, s)
	}
	return sensors
}

// SortedSensorNames returns the sensor names in lexicographic order.
func SortedSensorNames(sensors []Sensor) []string {
	names := make([]string, 0, len(sensors))
	for _, s := range sensors {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

func sensorAttr(payload, key string) string {
	m := sensorAttrPatterns[key].FindStringSubmatch(payload)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return strings.TrimSpace(m[2])
}
