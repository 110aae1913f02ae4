package main

import "webmoe/cmd"

func main() {
	cmd.Execute()
}
