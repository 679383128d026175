package match

import (
	"os"

	"github.com/karrick/godirwalk"
)

// walk is an equivalent of filepath.Walk built over godirwalk, adapted
// from the teacher's src/fs/walk.go: godirwalk's own interface requires
// an extra type import at every call site, so this trims it down to
// the (name, isDir) shape match actually needs.
func walk(rootPath string, callback func(name string, isDir bool) error) error {
	info, err := os.Lstat(rootPath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return callback(rootPath, false)
	}
	return godirwalk.Walk(rootPath, &godirwalk.Options{
		Callback: func(name string, dirent *godirwalk.Dirent) error {
			return callback(name, dirent.IsDir())
		},
	})
}
