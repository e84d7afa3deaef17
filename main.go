package main

import "github.com/fulmenhq/webneat/cmd"

func main() {
	cmd.Execute()
}
