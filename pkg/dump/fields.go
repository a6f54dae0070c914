package dump

import (
	"strconv"
	"strings"
)

const (
	tagDRMHex = "MediaDrm Device Unique ID (Hex):"

	tagRelease    = "Release:"
	tagMachine    = "Machine:"
	tagSysname    = "System Name:"
	tagNodename   = "Node Name:"
	tagVersion    = "Version:"
	tagDomainname = "Domain Name:"

	tagPageSize  = "Page Size:"
	tagPhysPages = "Physical Pages:"
	tagTotalMem  = "Total Physical Memory:"
	tagCPUCores  = "CPU Cores (Online):"

	tagSuspiciousCount = "Suspicious Libraries Found:"
	tagSuspiciousList  = "Suspicious Libraries:"
	tagNonSystemList   = "Non-System Libraries"
	listItemPrefix     = "- "
)

// Uname holds the kernel identification fields.
type Uname struct {
	Sysname    string `json:"sysname,omitempty"`
	Nodename   string `json:"nodename,omitempty"`
	Release    string `json:"release,omitempty"`
	Version    string `json:"version,omitempty"`
	Machine    string `json:"machine,omitempty"`
	Domainname string `json:"domainname,omitempty"`
}

// Sysconf holds the system configuration values. Unparseable values are
// Absent.
type Sysconf struct {
	PageSize      Value
	PhysPages     Value
	TotalMemoryMB Value
	CPUCores      Value
}

// Injection holds the result of the in-process library scan.
type Injection struct {
	Reported  bool
	Count     int
	Libraries []string
}

// ParseDRM returns the MediaDrm device id as printed, or "".
func ParseDRM(body string) string {
	for _, line := range lines(body) {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, tagDRMHex); ok {
			if v = strings.TrimSpace(v); v == "null" {
				return ""
			}
			return v
		}
	}
	return ""
}

// ParseUname extracts the uname fields from a kernel info section.
func ParseUname(body string) Uname {
	var u Uname
	for _, line := range lines(body) {
		line = strings.TrimSpace(line)
		switch {
		case cutInto(line, tagRelease, &u.Release):
		case cutInto(line, tagMachine, &u.Machine):
		case cutInto(line, tagSysname, &u.Sysname):
		case cutInto(line, tagNodename, &u.Nodename):
		case cutInto(line, tagVersion, &u.Version):
		case cutInto(line, tagDomainname, &u.Domainname):
		}
	}
	return u
}

// ParseSysconf extracts page size, page count, memory and core count.
func ParseSysconf(body string) Sysconf {
	var sc Sysconf
	for _, line := range lines(body) {
		line = strings.TrimSpace(line)
		var v string
		switch {
		case cutInto(line, tagPageSize, &v):
			sc.PageSize = numeric(strings.TrimSuffix(v, " bytes"))
		case cutInto(line, tagPhysPages, &v):
			sc.PhysPages = numeric(v)
		case cutInto(line, tagTotalMem, &v):
			sc.TotalMemoryMB = numeric(strings.TrimSuffix(v, " MB"))
		case cutInto(line, tagCPUCores, &v):
			sc.CPUCores = numeric(v)
		}
	}
	return sc
}

// ParseInjection reads the suspicious library count and the items listed
// under "Suspicious Libraries:". The collector's "Non-System Libraries"
// debug list uses the same item format and is not part of the verdict.
func ParseInjection(body string) Injection {
	var inj Injection
	inSuspicious := false
	for _, line := range lines(body) {
		line = strings.TrimSpace(line)
		var v string
		switch {
		case cutInto(line, tagSuspiciousCount, &v):
			inSuspicious = false
			if n, err := strconv.Atoi(v); err == nil {
				inj.Reported = true
				inj.Count = n
			}
		case strings.HasPrefix(line, tagSuspiciousList):
			inSuspicious = true
		case strings.HasPrefix(line, tagNonSystemList):
			inSuspicious = false
		case strings.HasPrefix(line, listItemPrefix):
			if !inSuspicious {
				continue
			}
			if lib := strings.TrimSpace(strings.TrimPrefix(line, listItemPrefix)); lib != "" {
				inj.Libraries = append(inj.Libraries, lib)
			}
		}
	}
	return inj
}

// ParseTags reads one uppercased tag per non-empty line.
func ParseTags(body string) []string {
	var tags []string
	for _, line := range lines(body) {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, listItemPrefix))
		if line == "" || strings.HasPrefix(line, bannerMarker) {
			continue
		}
		tags = append(tags, strings.ToUpper(line))
	}
	return tags
}

func cutInto(line, tag string, dst *string) bool {
	v, ok := strings.CutPrefix(line, tag)
	if !ok {
		return false
	}
	*dst = strings.TrimSpace(v)
	return true
}

// numeric keeps only values that classify as numbers.
func numeric(s string) Value {
	v := ParseValue(s)
	if v.Kind() != KindNumber {
		return Value{}
	}
	return v
}
