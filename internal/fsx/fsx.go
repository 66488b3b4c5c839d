// Package fsx holds the filesystem primitives used when sorting videos:
// renames that report cross-device failures explicitly, moves that never
// overwrite, atomic writes for cached sheets, and cheap file fingerprints.
package fsx

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// FingerprintSize is how many leading bytes of a file feed its fingerprint.
const FingerprintSize = 64 * 1024

// Swappable so tests can simulate EXDEV.
var renameFunc = os.Rename

// PathTypeConflictError reports a destination of the wrong kind, such as a
// directory where a file was expected.
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("path type conflict at %q: want %s, got %s", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// CrossDeviceError marks a rename that failed with EXDEV. Callers must not
// fall back to copy+delete.
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("cannot move %q to %q across filesystems: %v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice reports whether err is a CrossDeviceError.
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename wraps os.Rename and reports EXDEV as CrossDeviceError.
func Rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// MoveNoOverwrite renames src to dst, creating dst's directory. src may be a
// regular file or a symlink; a symlink is moved as a link and its target
// stays put. It returns os.ErrExist when dst is already a file or link and
// PathTypeConflictError when dst is something else. The existence check and
// the rename are not atomic.
func MoveNoOverwrite(src, dst string) error {
	fi, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if !isFileOrLink(fi.Mode()) {
		return &PathTypeConflictError{Path: src, Want: "regular file", Got: describeMode(fi.Mode())}
	}

	if err := checkFree(dst); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return Rename(src, dst)
}

func checkFree(dst string) error {
	fi, err := os.Lstat(dst)
	if err == nil {
		if !isFileOrLink(fi.Mode()) {
			return &PathTypeConflictError{Path: dst, Want: "file", Got: describeMode(fi.Mode())}
		}
		return os.ErrExist
	}
	if !os.IsNotExist(err) {
		return err
	}
	return nil
}

func isFileOrLink(m os.FileMode) bool {
	return m.IsRegular() || m&os.ModeSymlink != 0
}

func describeMode(m os.FileMode) string {
	if m.IsDir() {
		return "dir"
	}
	return m.Type().String()
}

// WriteFileAtomic writes name under dir through a temp file and a rename,
// replacing any existing file.
func WriteFileAtomic(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dst := filepath.Join(dir, name)
	if fi, err := os.Lstat(dst); err == nil && fi.IsDir() {
		return &PathTypeConflictError{Path: dst, Want: "file", Got: "dir"}
	}

	// Leading dot keeps half-written files out of directory listings.
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := Rename(tmpName, dst); err != nil {
		return err
	}

	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// Fingerprint hashes the size and the first FingerprintSize bytes of path.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write([]byte(strconv.FormatInt(info.Size(), 10)))
	h.Write([]byte{0})
	if _, err := io.Copy(h, io.LimitReader(f, FingerprintSize)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
