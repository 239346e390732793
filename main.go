package main

import "anistream/cmd"

func main() {
	cmd.Execute()
}
