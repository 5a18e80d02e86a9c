package util

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DefaultImageExtensions are the file extensions picked up by LoadDirectoryImageFiles.
var DefaultImageExtensions = []string{".png", ".jpg", ".jpeg", ".bmp"}

// ImageFile represents an image file found in a directory.
type ImageFile struct {
	// Name is the base file name, used as the catalog key.
	Name string
	// Path is the path to the image file.
	Path string
}

// HasImageExtension reports whether name ends with one of exts.
// The match is case-sensitive: "photo.JPG" does not match ".jpg".
func HasImageExtension(name string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// LoadDirectoryImageFiles lists the image files directly inside a directory.
//
// Arguments:
// - dir: Directory path containing image files.
// - exts: Accepted extensions including the dot. Nil selects DefaultImageExtensions.
//
// Returns:
// - []ImageFile: Matching regular files sorted by name.
// - error: Error if the directory can not be read.
func LoadDirectoryImageFiles(dir string, exts []string) ([]ImageFile, error) {
	if exts == nil {
		exts = DefaultImageExtensions
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory %s", dir)
	}

	var files []ImageFile
	for _, entry := range entries {
		if entry.IsDir() || !HasImageExtension(entry.Name(), exts) {
			continue
		}
		files = append(files, ImageFile{
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// ResizedName builds the output file name for an image resized to a request,
// inserting "_<W>x<H>" before the extension: "cat.jpg" -> "cat_200x250.jpg".
func ResizedName(name string, width, height int) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%dx%d%s", stem, width, height, ext)
}
