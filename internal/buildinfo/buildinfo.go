package buildinfo

import "runtime"

// Ces variables sont typiquement injectées à la compilation via -ldflags.
// Exemple :
//
//	-X github.com/Guilhem-Bonnet/kitsu/internal/buildinfo.Version=v0.1.0
//	-X github.com/Guilhem-Bonnet/kitsu/internal/buildinfo.Commit=abcdef
//	-X github.com/Guilhem-Bonnet/kitsu/internal/buildinfo.Date=2026-10-18
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"goVersion"`
}

func Current() Info {
	return Info{Version: Version, Commit: Commit, Date: Date, GoVersion: runtime.Version()}
}

// UserAgent is sent on every catalog request.
func UserAgent() string {
	return "kitsu/" + Version
}
