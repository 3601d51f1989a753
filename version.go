package cdksequencer

import (
	"fmt"
	"io"
	"runtime"
)

// Name is the binary name reported by the version command
const Name = "cdk-sequencer"

// Populated during build, don't touch!
var (
	Version   = "v0.1.0"
	GitRev    = "undefined"
	GitBranch = "undefined"
	BuildDate = "Fri, 17 Jun 1988 01:58:00 +0200"
)

// BuildInfo describes the running binary
type BuildInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GitRev    string `json:"gitRevision"`
	GitBranch string `json:"gitBranch"`
	BuildDate string `json:"built"`
	GoVersion string `json:"goVersion"`
	OSArch    string `json:"os/arch"`
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Name:      Name,
		Version:   Version,
		GitRev:    GitRev,
		GitBranch: GitBranch,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OSArch:    runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// PrintVersion writes the human readable build info
func PrintVersion(w io.Writer) {
	fmt.Fprint(w, GetBuildInfo().String())
}

// Fields returns the build info as key/value pairs for structured logging. The version itself
// is left out because the logger adds it to every entry.
func (b BuildInfo) Fields() []interface{} {
	return []interface{}{
		"gitRevision", b.GitRev,
		"gitBranch", b.GitBranch,
		"goVersion", b.GoVersion,
		"built", b.BuildDate,
		"os/arch", b.OSArch,
	}
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s %s\n"+
		"Git revision: %s\n"+
		"Git branch:   %s\n"+
		"Go version:   %s\n"+
		"Built:        %s\n"+
		"OS/Arch:      %s\n",
		b.Name, b.Version, b.GitRev, b.GitBranch, b.GoVersion, b.BuildDate, b.OSArch)
}
