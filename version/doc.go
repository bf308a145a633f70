// Package version reports the build that is running. draftd exposes it on
// /version, /info and the -version flag.
//
// Values are stamped with -ldflags, falling back to the VCS settings the
// Go toolchain embeds:
//
//	go build -ldflags "-X github.com/kbukum/draftkit/version.Version=1.2.0" ./cmd/draftd
package version
