//go:build unix

package fsx

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

func TestWriteFile_CrossDeviceEXDEV(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  func(oldpath, newpath string) error
	}{
		{"bare", func(string, string) error { return syscall.EXDEV }},
		{"link_error", func(oldpath, newpath string) error {
			return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			old := renameFunc
			renameFunc = tc.err
			defer func() { renameFunc = old }()

			dir := t.TempDir()
			err := WriteFile(filepath.Join(dir, "report.txt"), []byte("x"), true)
			if !IsCrossDevice(err) {
				t.Fatalf("期望 CrossDeviceError，实际：%T %v", err, err)
			}
			assertNoTemp(t, dir, "report.txt")
		})
	}
}

func TestWriteFile_SymlinkTargetIsConflict(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	if err := os.WriteFile(target, []byte("v1"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("创建符号链接失败：%v", err)
	}

	// 不跟随符号链接覆盖：避免把报告写到链接指向的别处。
	if err := WriteFile(link, []byte("v2"), true); !IsPathTypeConflict(err) {
		t.Fatalf("期望 PathTypeConflictError，实际：%T %v", err, err)
	}
	if b, _ := os.ReadFile(target); string(b) != "v1" {
		t.Fatalf("链接目标不应被修改：%q", string(b))
	}
}
