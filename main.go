package main

import "github.com/Vaishaal/expdb/internal/cli"

func main() {
	cli.Execute()
}
