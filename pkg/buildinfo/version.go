// Package buildinfo holds the nodeflow release stamp.
//
// The linker fills the variables in at release time:
//
//	go build -ldflags "-X github.com/matzehuels/nodeflow/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/nodeflow/pkg/buildinfo.Commit=$(git rev-parse --short HEAD)" ./cmd/nodeflow
//
// Development builds report "dev".
package buildinfo

import "fmt"

var (
	// Version is the release tag.
	Version = "dev"
	// Commit is the source revision.
	Commit = "none"
	// Date is when the binary was built, in RFC 3339.
	Date = "unknown"
)

// Info is a snapshot of the stamp, shaped for JSON responses.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"built"`
}

// Current reads the stamp.
func Current() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// Dev reports whether the binary carries no release tag.
func (i Info) Dev() bool { return i.Version == "dev" }

func (i Info) String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", i.Version, i.Commit, i.Date)
}

// String formats the current stamp.
func String() string { return Current().String() }

// Template is the cobra --version template.
func Template() string {
	return "{{.Name}} " + Current().String() + "\n"
}
