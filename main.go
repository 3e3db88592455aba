package main

import "github.com/relloyd/pgshift/cmd"

func main() {
	cmd.Execute()
}
