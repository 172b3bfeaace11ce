// Package version holds build information injected by the linker, for
// example,
//
//	go build -ldflags "-X github.com/macrodactyl/thegrid/version.GitHash=`git rev-parse HEAD` -X github.com/macrodactyl/thegrid/version.BuildTime=`date -u +%FT%TZ`"
package version

var (
	BuildTime = "unknown"
	GitHash   = "unknown"
)
