package main

import "github.com/alexk49/booksanon/cmd"

// execute is indirected for testing.
var execute = cmd.Execute

func main() {
	execute()
}
