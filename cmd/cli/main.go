package main

import "github.com/dmitrijs2005/lexbridge/internal/client/cli"

func main() {
	cli.Execute()
}
