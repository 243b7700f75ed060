package main

import "github.com/MrSnakeDoc/devure/internal/cli"

func main() {
	cli.Execute()
}
