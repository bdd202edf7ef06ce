package hostsfile

import "runtime"

// Platform abstracts the per-OS hosts table location and line ending.
// Selected once at startup; mutation behavior is identical everywhere.
type Platform interface {
	HostsPath() string
	EOL() string
}

type unixPlatform struct{}

func (unixPlatform) HostsPath() string { return "/etc/hosts" }
func (unixPlatform) EOL() string       { return "\n" }

type windowsPlatform struct{}

func (windowsPlatform) HostsPath() string {
	return `C:\Windows\System32\drivers\etc\hosts`
}
func (windowsPlatform) EOL() string { return "\r\n" }

// DetectPlatform picks the hosts table implementation for the current OS.
func DetectPlatform() Platform {
	if runtime.GOOS == "windows" {
		return windowsPlatform{}
	}
	return unixPlatform{}
}
