//go:build !windows

package sampler

// isLocalDrive accepts every mount; network and pseudo filesystems are
// filtered by type in includePartition.
func isLocalDrive(string) bool {
	return true
}
