package main

import (
	"github.com/grepsan/huddle/internal/cli"
	"github.com/grepsan/huddle/internal/logging"
)

func main() {
	logging.Init("error")
	cli.Execute()
}
