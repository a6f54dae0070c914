package dump

import (
	"strings"

	"github.com/rs/zerolog/log"
)

type sectionKind int

const (
	kindUnknown sectionKind = iota
	kindProbes
	kindDRM
	kindKernel
	kindSysconf
	kindInjection
	kindTags
	kindProperties
)

func (k sectionKind) String() string {
	switch k {
	case kindProbes:
		return "probes"
	case kindDRM:
		return "drm"
	case kindKernel:
		return "kernel"
	case kindSysconf:
		return "sysconf"
	case kindInjection:
		return "injection"
	case kindTags:
		return "tags"
	case kindProperties:
		return "properties"
	default:
		return "unknown"
	}
}

// Routes are checked in order; probe titles come first because
// "Environment & Security" also contains the "Security" property marker.
var routes = []struct {
	kind    sectionKind
	markers []string
}{
	{kindProbes, []string{"Hardware & Kernel", "Environment & Security", "Mounts & Inputs"}},
	{kindDRM, []string{"DRM Info"}},
	{kindKernel, []string{"Kernel Info"}},
	{kindSysconf, []string{"System Config"}},
	{kindInjection, []string{"Zygisk Injection"}},
	{kindTags, []string{"Risk Tags"}},
	{kindProperties, []string{
		"Native Build Info", "System Properties", "USB Config", "Security",
		"Build ID", "SDK Version", "Security Patch", "Other System", "Display ID",
		"Build Host", "Build Version", "Build Description", "Build Fingerprint", "Build Date",
	}},
}

func classify(title string) sectionKind {
	for _, r := range routes {
		for _, m := range r.markers {
			if strings.Contains(title, m) {
				return r.kind
			}
		}
	}
	return kindUnknown
}

// Native is the parsed form of a native-tier dump.
type Native struct {
	Properties Properties
	Probes     Probes
	DRMID      string
	Uname      Uname
	Sysconf    Sysconf
	Injection  Injection
	Tags       []string
}

// ParseNative splits raw and routes each section to its extractor.
// Repeated sections merge; later values win.
func ParseNative(raw string) *Native {
	n := &Native{
		Properties: Properties{},
		Probes:     Probes{},
	}

	for _, s := range Split(raw) {
		kind := classify(s.Title)
		log.Debug().
			Str("component", "dump").
			Str("section", s.Title).
			Stringer("kind", kind).
			Msg("Routing section")

		switch kind {
		case kindProbes:
			mergeProbes(n.Probes, s.Body)
		case kindDRM:
			if id := ParseDRM(s.Body); id != "" {
				n.DRMID = id
			}
		case kindKernel:
			n.Uname = mergeUname(n.Uname, ParseUname(s.Body))
		case kindSysconf:
			n.Sysconf = mergeSysconf(n.Sysconf, ParseSysconf(s.Body))
		case kindInjection:
			inj := ParseInjection(s.Body)
			n.Injection.Reported = n.Injection.Reported || inj.Reported
			n.Injection.Count += inj.Count
			n.Injection.Libraries = append(n.Injection.Libraries, inj.Libraries...)
		case kindTags:
			n.Tags = append(n.Tags, ParseTags(s.Body)...)
		case kindProperties:
			mergeProperties(n.Properties, s.Body)
		}
	}

	return n
}

func mergeUname(dst, src Uname) Uname {
	pick := func(a, b string) string {
		if b != "" {
			return b
		}
		return a
	}
	return Uname{
		Sysname:    pick(dst.Sysname, src.Sysname),
		Nodename:   pick(dst.Nodename, src.Nodename),
		Release:    pick(dst.Release, src.Release),
		Version:    pick(dst.Version, src.Version),
		Machine:    pick(dst.Machine, src.Machine),
		Domainname: pick(dst.Domainname, src.Domainname),
	}
}

func mergeSysconf(dst, src Sysconf) Sysconf {
	pick := func(a, b Value) Value {
		if b.Present() {
			return b
		}
		return a
	}
	return Sysconf{
		PageSize:      pick(dst.PageSize, src.PageSize),
		PhysPages:     pick(dst.PhysPages, src.PhysPages),
		TotalMemoryMB: pick(dst.TotalMemoryMB, src.TotalMemoryMB),
		CPUCores:      pick(dst.CPUCores, src.CPUCores),
	}
}
