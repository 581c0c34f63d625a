package main

import (
	"github.com/jjtimmons/ncortho/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
