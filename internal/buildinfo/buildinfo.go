package buildinfo

import "github.com/prometheus/common/version"

const Graffiti = " _   __ ____  \n| | / /|  _ \\ \n| |/ / | | | |\n|    \\ | | | |\n| |\\  \\| |/ / \n\\_| \\_/|___/  \n\n"

// Set with -ldflags "-X github.com/go-sod/kd/internal/buildinfo.BuildTag=...".
var (
	BuildTag string = "v0.0.0"
	Revision string = ""
	Name     string = "KD"
	Time     string = ""
)

func init() {
	version.Version = BuildTag
	if Revision != "" {
		version.Revision = Revision
	}
	version.BuildDate = Time
}

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

// Print returns the version summary in the prometheus format.
func (buildinfo) Print() string {
	return version.Print(Name)
}

var Info buildinfo
