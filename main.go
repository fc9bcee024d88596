package main

import (
	"github.com/Ramsey-B/storedb/cmd"
)

func main() {
	cmd.Execute()
}
