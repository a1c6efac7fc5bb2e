package finisher

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// WriteTarGz writes the given files into a gzip-compressed tar archive
// at archivePath. Files are stored under their base names with their
// current permission bits, so an extracted binary stays executable.
func WriteTarGz(archivePath string, files ...string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	// Track whether we need to close the file on the error paths; the
	// success path closes it exactly once and reports the flush error.
	closeNeeded := true
	defer func() {
		if closeNeeded {
			out.Close()
		}
	}()

	gzipWriter := gzip.NewWriter(out)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, file := range files {
		if err := addFile(tarWriter, file); err != nil {
			tarWriter.Close()
			gzipWriter.Close()
			return err
		}
	}

	if err := tarWriter.Close(); err != nil {
		return fmt.Errorf("close tar writer: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("close gzip writer: %w", err)
	}

	closeNeeded = false
	return out.Close()
}

func addFile(tw *tar.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("tar header for %s: %w", path, err)
	}
	header.Name = filepath.Base(path)

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write tar header for %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("write %s to archive: %w", path, err)
	}
	return nil
}
