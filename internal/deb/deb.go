// Package deb reads the control metadata back out of a built binary .deb,
// which is an ar archive with a compressed control tarball inside. The
// packaging itself is delegated to dpkg-deb; this reader exists so a build
// can verify that the archive it is about to report actually carries the
// requested package name and version.
package deb

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/control"
)

// ReadControl extracts and parses the control paragraph of the .deb archive
// at path.
func ReadControl(path string) (section control.Section, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("cannot read control data from %s: %w", path, err)
		}
	}()

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	arReader := ar.NewReader(file)
	for {
		header, err := arReader.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("no control member found")
		}
		if err != nil {
			return nil, err
		}
		// Some ar writers pad member names with trailing slashes.
		name := strings.TrimRight(strings.TrimSpace(header.Name), "/")
		if !strings.HasPrefix(name, "control.tar") {
			continue
		}
		dataReader, err := decompressor(name, arReader)
		if err != nil {
			return nil, err
		}
		return readControlFile(dataReader)
	}
}

func decompressor(name string, reader io.Reader) (io.Reader, error) {
	switch filepath.Ext(name) {
	case ".tar":
		return reader, nil
	case ".gz":
		return gzip.NewReader(reader)
	case ".xz":
		return xz.NewReader(reader)
	case ".zst":
		zstdReader, err := zstd.NewReader(reader)
		if err != nil {
			return nil, err
		}
		return zstdReader.IOReadCloser(), nil
	}
	return nil, fmt.Errorf("unsupported control member compression: %s", name)
}

func readControlFile(dataReader io.Reader) (control.Section, error) {
	tarReader := tar.NewReader(dataReader)
	for {
		tarHeader, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if strings.TrimPrefix(tarHeader.Name, "./") != "control" {
			continue
		}
		data, err := io.ReadAll(tarReader)
		if err != nil {
			return nil, err
		}
		return control.ParseSection(string(data)), nil
	}
	return nil, fmt.Errorf("control member carries no control file")
}
