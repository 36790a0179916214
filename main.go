package main

import "github.com/theirongolddev/agencyplan/cmd"

func main() {
	cmd.Execute()
}
