// propfilter filters the properties of JSON and YAML documents by type.
package main

import (
	"os"

	"github.com/hupe1980/propfilter/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
