package derive

import (
	goversion "github.com/hashicorp/go-version"
)

// Version status values attached to derived nodes when a latest release
// version is configured.
const (
	VersionCurrent  = "current"
	VersionOutdated = "outdated"
	VersionUnknown  = "unknown"
)

// VersionStatus compares a pod's reported version against the latest known
// release. Unparseable or missing versions are "unknown" rather than an
// error; version strings in the gossip network are free-form.
func VersionStatus(podVersion, latestVersion string) string {
	if podVersion == "" || latestVersion == "" {
		return VersionUnknown
	}

	current, err := goversion.NewVersion(podVersion)
	if err != nil {
		return VersionUnknown
	}
	latest, err := goversion.NewVersion(latestVersion)
	if err != nil {
		return VersionUnknown
	}

	if current.LessThan(latest) {
		return VersionOutdated
	}
	return VersionCurrent
}
