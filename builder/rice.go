//go:build ignore

package auto_install

// This whole file is not actually used as go code, it's just scanned by rice in the
// append process, when it's looking for directories from which to append data.
//
//	go build ./cmd/auto_moos && rice append --exec auto_moos
import "github.com/GeertJohan/go.rice"

func boxes() {
	// Distro definitions, translations and system file templates.
	rice.FindBox("resources")
}
