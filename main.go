package main

import "github.com/deploymenttheory/go-dexscan/cmd"

func main() {
	cmd.Execute()
}
