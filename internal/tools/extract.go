package tools

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Format is how a downloaded asset becomes a binary.
type Format int

const (
	// FormatNone means the asset is the binary itself.
	FormatNone Format = iota
	FormatTarGz
	FormatUnsupported
)

func (f Format) String() string {
	switch f {
	case FormatNone:
		return "none"
	case FormatTarGz:
		return "tar.gz"
	default:
		return "unsupported"
	}
}

// ClassifyAsset picks the materialization strategy for asset under pc.
func ClassifyAsset(pc PlatformConfig, asset string) Format {
	if pc.NoExtract {
		return FormatNone
	}
	name := strings.ToLower(asset)
	if strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz") {
		return FormatTarGz
	}
	return FormatUnsupported
}

// extractTarGz unpacks archive into dest on fs. Entries escaping dest are
// rejected. Symlinks are recreated when fs supports them and skipped otherwise.
func extractTarGz(fs afero.Fs, archive, dest string) error {
	f, err := fs.Open(archive)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("create gzip reader: %w", err)
	}
	defer gz.Close()

	if err := fs.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}
	root := filepath.Clean(dest) + string(os.PathSeparator)
	linker, canLink := fs.(afero.Linker)

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		target := filepath.Join(dest, filepath.FromSlash(header.Name))
		if target != filepath.Clean(dest) && !strings.HasPrefix(target, root) {
			return fmt.Errorf("illegal file path in archive: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := fs.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeEntry(fs, tr, target, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeLink:
			// Hard links point at an entry already written earlier in the archive.
			source := filepath.Join(dest, filepath.FromSlash(header.Linkname))
			if !strings.HasPrefix(source, root) {
				return fmt.Errorf("illegal link target in archive: %s -> %s", header.Name, header.Linkname)
			}
			if err := copyEntry(fs, source, target); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if !canLink {
				continue
			}
			linkDest := header.Linkname
			if !filepath.IsAbs(linkDest) {
				linkDest = filepath.Join(filepath.Dir(target), linkDest)
			}
			if linkDest = filepath.Clean(linkDest); linkDest != filepath.Clean(dest) && !strings.HasPrefix(linkDest, root) {
				return fmt.Errorf("illegal symlink in archive: %s -> %s", header.Name, header.Linkname)
			}
			if err := fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create parent dir for %s: %w", target, err)
			}
			_ = fs.Remove(target)
			if err := linker.SymlinkIfPossible(header.Linkname, target); err != nil {
				return fmt.Errorf("create symlink %s: %w", target, err)
			}
		}
	}
}

func writeEntry(fs afero.Fs, r io.Reader, target string, mode os.FileMode) error {
	if err := fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", target, err)
	}
	if mode == 0 {
		mode = 0o644
	}
	out, err := fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("write file %s: %w", target, err)
	}
	return out.Close()
}

func copyEntry(fs afero.Fs, source, target string) error {
	info, err := fs.Stat(source)
	if err != nil {
		return fmt.Errorf("hard link source %s: %w", source, err)
	}
	in, err := fs.Open(source)
	if err != nil {
		return fmt.Errorf("open hard link source %s: %w", source, err)
	}
	defer in.Close()
	_ = fs.Remove(target)
	return writeEntry(fs, in, target, info.Mode().Perm())
}

// maxLinkHops bounds symlink chains inside an extracted archive.
const maxLinkHops = 8

// resolveInTree follows symlinks at path until it reaches a regular file,
// refusing links that leave tree. Filesystems without symlink support return
// path unchanged.
func resolveInTree(fs afero.Fs, tree, path string) (string, error) {
	lstater, ok := fs.(afero.Lstater)
	if !ok {
		return path, nil
	}
	reader, ok := fs.(afero.LinkReader)
	if !ok {
		return path, nil
	}
	root := filepath.Clean(tree) + string(os.PathSeparator)

	for hop := 0; hop <= maxLinkHops; hop++ {
		info, _, err := lstater.LstatIfPossible(path)
		if err != nil {
			return "", err
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return path, nil
		}
		link, err := reader.ReadlinkIfPossible(path)
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(link) {
			link = filepath.Join(filepath.Dir(path), link)
		}
		link = filepath.Clean(link)
		if !strings.HasPrefix(link, root) {
			return "", fmt.Errorf("%s links outside the archive to %s", path, link)
		}
		path = link
	}
	return "", fmt.Errorf("%s: too many levels of symbolic links", path)
}
