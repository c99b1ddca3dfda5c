package main

import "github.com/mvp-joe/stitch/internal/cli"

func main() {
	cli.Execute()
}
