package main

import "vidsnatch/cmd"

func main() {
	cmd.Execute()
}
