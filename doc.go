// Automated installers for Arch Linux and MOOS.
//
// An installer runs from a live ISO (or an existing installation) as root. It reads a
// package list and profile from its configuration directory, lets the user adjust the
// profile in a terminal interface, and then partitions the selected device, bootstraps
// the system with pacstrap and configures it inside a chroot.
//
// The binaries in cmd/ differ only in the distro they install. Distro defaults,
// translations and system file templates live in the "resources" box, which can be
// appended to the binaries with rice (see builder/rice.go).
package auto_install
