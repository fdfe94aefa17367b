// Command colstd standardizes telecom dataset column names.
package main

import (
	"os"

	"colstd/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
