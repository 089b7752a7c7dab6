package main

import (
	"fmt"
	"os"

	"matchdeck-backend/cmd"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if len(os.Args) != 3 {
			fmt.Fprintln(os.Stderr, "usage: matchdeck-backend token <user_id>")
			os.Exit(2)
		}
		cmd.IssueToken(os.Args[2])
		return
	}

	cmd.Run()
}
