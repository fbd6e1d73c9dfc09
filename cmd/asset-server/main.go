package main

import (
	"os"

	_ "time/tzdata" // the default timezone must resolve on minimal images

	"github.com/tptkds/assetManagement/cmd/asset-server/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
