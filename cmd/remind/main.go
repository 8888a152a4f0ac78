package main

import "github.com/theakshaypant/remind/cmd/remind/cmd"

func main() {
	cmd.Execute()
}
