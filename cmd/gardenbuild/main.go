// Command gardenbuild builds a static site from a markdown vault.
package main

import (
	"os"

	"git.home.luguber.info/inful/gardenbuild/cmd/gardenbuild/commands"
)

func main() {
	os.Exit(commands.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
