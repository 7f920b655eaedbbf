package main

import "github.com/evanmoss/chatstream/cmd"

func main() {
	cmd.Execute()
}
