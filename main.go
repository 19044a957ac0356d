package main

import "github.com/todolist/apiserver/cmd"

func main() {
	cmd.Execute()
}
