//go:build windows

package config

// Unix names used in shared project files, mapped to their Windows
// counterparts.
var windowsEnv = map[string]string{
	"HOME":     "USERPROFILE",
	"HOSTNAME": "COMPUTERNAME",
	"USER":     "USERNAME",
	"TMPDIR":   "TEMP",
}

func mapEnvKey(key string) string {
	if mapped, ok := windowsEnv[key]; ok {
		return mapped
	}
	return key
}
