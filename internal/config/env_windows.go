//go:build windows

package config

// Unix variable names used in shared config files and their Windows
// counterparts.
var envAliases = map[string]string{
	"HOSTNAME": "COMPUTERNAME",
	"HOME":     "USERPROFILE",
	"USER":     "USERNAME",
}

func mapEnvKey(key string) string {
	if alias, ok := envAliases[key]; ok {
		return alias
	}
	return key
}
