// Package main is the single-binary entrypoint for tasklane, the
// multi-tenant task-lane scheduler daemon and admin CLI.
package main

import "github.com/tutu-network/tasklane/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
