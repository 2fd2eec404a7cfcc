package main

import "skillhub/internal/cli"

func main() {
	cli.Execute()
}
