package fastfetch

import "runtime/debug"

// Version is reported as the instrumentation version of the client's spans.
var Version = "v0.3.0"

// GetVersion returns "fastfetch <Version>", followed by the short VCS
// revision when the binary carries build information.
func GetVersion() string {
	v := "fastfetch " + Version
	if rev := vcsRevision(); rev != "" {
		v += " (" + rev + ")"
	}
	return v
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key != "vcs.revision" {
			continue
		}
		if len(s.Value) > 12 {
			return s.Value[:12]
		}
		return s.Value
	}
	return ""
}
