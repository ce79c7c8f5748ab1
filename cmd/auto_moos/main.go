// Command auto_moos installs MOOS from a live ISO.
package main

import (
	"os"

	auto_install "github.com/grandchild/auto_install"
)

func main() {
	os.Exit(auto_install.Run("moos", os.Args[1:]))
}
