// Command clappy is an interactive and scriptable HTTP API client.
package main

import (
	"os"

	"github.com/getmockd/clappy/pkg/cli"
)

func main() {
	os.Exit(cli.Main())
}
