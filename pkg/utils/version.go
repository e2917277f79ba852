// Package utils holds build metadata stamped in at link time:
//
//	go build -ldflags "-X github.com/papercomputeco/aish/pkg/utils.Version=v0.1.0"
package utils

var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
