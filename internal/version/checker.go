package version

import (
	"context"
	"time"
)

// UpdateAvailable describes a newer release.
type UpdateAvailable struct {
	CurrentVersion string
	LatestVersion  string
	UpdateCommand  string
}

// CheckCached consults the cache and falls back to src. It returns nil when
// the binary is current, is a development build, or the check failed.
func CheckCached(ctx context.Context, src ReleaseSource, currentVersion string) *UpdateAvailable {
	if cached, err := LoadCache(); err == nil && IsCacheValid(cached, currentVersion) {
		if cached.HasUpdate {
			return &UpdateAvailable{
				CurrentVersion: currentVersion,
				LatestVersion:  cached.LatestVersion,
				UpdateCommand:  UpdateCommand(cached.LatestVersion),
			}
		}
		return nil
	}

	result := Check(ctx, src, currentVersion)

	// Only cache successful checks
	if result.Error == nil && !IsDevelopmentVersion(currentVersion) {
		_ = SaveCache(&CacheEntry{
			LatestVersion:  result.LatestVersion,
			CurrentVersion: currentVersion,
			CheckedAt:      time.Now(),
			HasUpdate:      result.HasUpdate,
		})
	}

	if result.HasUpdate {
		return &UpdateAvailable{
			CurrentVersion: currentVersion,
			LatestVersion:  result.LatestVersion,
			UpdateCommand:  UpdateCommand(result.LatestVersion),
		}
	}
	return nil
}
