package main

import "github.com/lukman83/shopgenie/cmd"

func main() {
	cmd.Execute()
}
