package main

import "github.com/naka-gawa/repo-cards/cmd"

func main() {
	cmd.Execute()
}
