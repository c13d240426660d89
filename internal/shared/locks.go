package shared

import "fmt"

// ArchiveLockKey builds the redis key guarding the monthly report archive.
func ArchiveLockKey(year, month int) string {
	return fmt.Sprintf("report:archive:%d:%02d:lock", year, month)
}
