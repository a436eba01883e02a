package main

import "github.com/KaramelBytes/robowriter/cmd"

func main() {
	cmd.Execute()
}
