package pathutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// relativeToRoot returns path relative to root, or an error if path is not
// contained in root. The computation is purely lexical, neither path is
// required to exist and symlinks are never resolved.
func relativeToRoot(root, path string) (string, error) {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("path %s escapes root %s", path, root)
	}
	return rel, nil
}

// RelativeSymlinkTarget computes the target of a relative symlink placed at
// dst and pointing at src, where both paths live inside root and root
// represents the future filesystem root of the installed package.
//
// filepath.Rel cannot be used on src and dst directly because it would
// resolve through whatever the current directory layout happens to be. We
// instead count how far dst's parent is from root and prepend that many ".."
// components to src's root-relative path. The result is valid no matter
// where the tree is later unpacked.
func RelativeSymlinkTarget(root, src, dst string) (string, error) {
	srcRel, err := relativeToRoot(root, src)
	if err != nil {
		return "", err
	}
	dstParentRel, err := relativeToRoot(root, filepath.Dir(filepath.Clean(dst)))
	if err != nil {
		return "", err
	}
	var distance int
	if dstParentRel != "." {
		distance = strings.Count(dstParentRel, string(filepath.Separator)) + 1
	}
	return strings.Repeat("../", distance) + srcRel, nil
}

// HasSymlinkAncestor reports whether any proper ancestor directory of
// relPath, resolved under root, is itself a symlink. The last component of
// relPath is never tested, nor is root itself.
func HasSymlinkAncestor(root, relPath string) (bool, error) {
	parts := strings.Split(filepath.Clean(relPath), string(filepath.Separator))
	ancestor := root
	for _, part := range parts[:len(parts)-1] {
		ancestor = filepath.Join(ancestor, part)
		finfo, err := os.Lstat(ancestor)
		if err != nil {
			return false, err
		}
		if finfo.Mode()&fs.ModeSymlink != 0 {
			return true, nil
		}
	}
	return false, nil
}
