package main

import (
	"oneradio/cmd"
	"log"
)

func main() {
	cmd.Execute()
	// If Execute() had a problem, it would have called os.Exit.
	// If we reach here, the command has returned: the server has shut down.
	log.Println("Application command execution finished.")
}
