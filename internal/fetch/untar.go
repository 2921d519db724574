package fetch

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Untar unpacks a .tar.gz archive into destDir. Entries that would escape
// destDir are rejected. Unpacking over an existing tree overwrites files in
// place, so a second run converges instead of failing.
func Untar(archive, destDir string) error {
	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", archive, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read archive %s: %w", archive, err)
	}
	defer gz.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", destDir, err)
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read archive %s: %w", archive, err)
		}

		dest, err := secureJoin(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, os.FileMode(hdr.Mode)|0o700); err != nil {
				return fmt.Errorf("failed to create dir %s: %w", dest, err)
			}
		case tar.TypeReg:
			if err := writeEntry(dest, tr, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return fmt.Errorf("failed to create dir for %s: %w", dest, err)
			}
			// Remove-then-create keeps symlink creation idempotent on reruns.
			os.Remove(dest)
			if err := os.Symlink(hdr.Linkname, dest); err != nil {
				return fmt.Errorf("failed to create symlink %s: %w", dest, err)
			}
		default:
			// Hard links, devices etc. do not occur in the archives we fetch.
		}
	}
}

func writeEntry(dest string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create dir for %s: %w", dest, err)
	}
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	_, err = io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return nil
}

// secureJoin resolves name under destDir and rejects path traversal.
func secureJoin(destDir, name string) (string, error) {
	dest := filepath.Join(destDir, name)
	if dest != destDir && !strings.HasPrefix(dest, destDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes %s", name, destDir)
	}
	return dest, nil
}

// CheckFreeSpace fails when dir's filesystem has less than need bytes free.
// The SDK tarball unpacks to several GB; better to fail before the untar
// than partway through it.
func CheckFreeSpace(dir string, need uint64) error {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return fmt.Errorf("failed to statfs %s: %w", dir, err)
	}
	free := st.Bavail * uint64(st.Bsize)
	if free < need {
		return fmt.Errorf("not enough space in %s: %d bytes free, need %d", dir, free, need)
	}
	return nil
}
