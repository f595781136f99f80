package main

import "github.com/velotrace/velotrace/cmd"

func main() {
	cmd.Execute()
}
