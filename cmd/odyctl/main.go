package main

import (
	"github.com/project-odysseus/odyctl/internal/cli"
)

func main() {
	cli.Execute()
}
