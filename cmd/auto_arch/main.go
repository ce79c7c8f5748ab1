// Command auto_arch installs Arch Linux from a live ISO.
package main

import (
	"os"

	auto_install "github.com/grandchild/auto_install"
)

func main() {
	os.Exit(auto_install.Run("arch", os.Args[1:]))
}
