package main

import "github.com/kozaktomas/face-reindex/cmd"

func main() {
	cmd.Execute()
}
