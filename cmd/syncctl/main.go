package main

import "github.com/gitsyncd/gitsyncd/cmd/syncctl/cmd"

func main() {
	cmd.Execute()
}
