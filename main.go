// sysrecv receives syslog messages, stores them and serves a search API.
package main

import (
	"os"
	"sysrecv/cli"
)

func main() {
	os.Exit(cli.Execute())
}
