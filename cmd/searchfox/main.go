package main

import "searchfox/internal/cli"

func main() {
	cli.Execute()
}
