package main

import "github.com/RyanBlaney/nowplaying/cmd"

func main() {
	cmd.Execute()
}
