package auto_install

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"sync"

	rice "github.com/GeertJohan/go.rice"
)

var (
	resourcesBox     *rice.Box
	resourcesBoxOnce sync.Once
	resourcesBoxErr  error
)

// openBoxes opens the resource box. For go.rice's 'append' mode to work, all calls to
// FindBox() have to be with a literal string parameter.
func openBoxes() error {
	resourcesBoxOnce.Do(func() {
		resourcesBox, resourcesBoxErr = rice.FindBox("resources")
	})
	return resourcesBoxErr
}

// GetResource returns the content of a file inside the resource box.
func GetResource(name string) (string, error) {
	if err := openBoxes(); err != nil {
		return "", ErrResource.Wrap(err)
	}
	text, err := resourcesBox.String(name)
	if err != nil {
		return "", ErrResource.Wrapf("%s not found", name)
	}
	return text, nil
}

// MustGetResource is GetResource for resources that are part of every build. It
// panics if the resource is missing.
func MustGetResource(name string) string {
	text, err := GetResource(name)
	if err != nil {
		panic(err)
	}
	return text
}

// GetResourceFiltered returns a map of filename to content of all the files in the
// given directory of the resource box whose names match the filter.
func GetResourceFiltered(dir string, filter *regexp.Regexp) (map[string]string, error) {
	if err := openBoxes(); err != nil {
		return nil, ErrResource.Wrap(err)
	}
	files := make(map[string]string)
	err := resourcesBox.Walk(dir, func(walkPath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !filter.MatchString(info.Name()) {
			return nil
		}
		name := path.Join(dir, info.Name())
		content, err := resourcesBox.String(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		files[name] = content
		return nil
	})
	if err != nil {
		return nil, ErrResource.Wrapf("%s: %w", dir, err)
	}
	return files, nil
}

// MustGetResourceFiltered is GetResourceFiltered which panics on error.
func MustGetResourceFiltered(dir string, filter *regexp.Regexp) map[string]string {
	files, err := GetResourceFiltered(dir, filter)
	if err != nil {
		panic(err)
	}
	return files
}
