// Package main provides the toolscout CLI.
//
// Usage:
//
//	toolscout serve
//	toolscout seed --file catalog.json
//	toolscout report --range 7d --out clicks.md
//
// Configuration is layered: defaults, then the YAML file named by --config
// or TOOLSCOUT_CONFIG, then TOOLSCOUT_* environment variables.
package main

func main() {
	Execute()
}
