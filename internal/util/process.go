package util

import "golang.org/x/sys/unix"

// IsRoot reports whether the current process runs with an effective uid of 0
func IsRoot() bool {
	return unix.Geteuid() == 0
}
