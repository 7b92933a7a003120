//go:build unix

package fsx

import (
	"errors"
	"syscall"
)

// isEXDEV 判断 rename 是否因跨设备失败（*os.LinkError 会被 errors.Is 展开）。
func isEXDEV(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
