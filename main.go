package main

import cmd "github.com/matteworks/matte-server/cmd/matte"

func main() {
	cmd.Execute()
}
