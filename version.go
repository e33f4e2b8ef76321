// Package reword renames the most recent git commit through a safe
// command runner. The tool is split into internal packages; this package
// only carries build metadata.
package reword

// Version is the release version. Overridden with -ldflags at build time.
var Version = "dev"
