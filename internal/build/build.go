// Package build тримає метадані збірки keycloak-login, які CI проставляє
// через ldflags.
package build

var (
	// Version семантична версія релізу
	Version = "dev"

	// Number порядковий номер збірки в CI
	Number = "local"

	// GitCommit хеш коміту, з якого зібрано бінарник
	GitCommit = "unknown"

	// BuildTime час збірки
	BuildTime = "unknown"
)

// Info повертає метадані збірки для version команди
func Info() map[string]string {
	return map[string]string{
		"version":    Version,
		"number":     Number,
		"git_commit": GitCommit,
		"build_time": BuildTime,
	}
}
