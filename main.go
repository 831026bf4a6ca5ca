package main

import "github.com/arvanehlab/ravan_backend/cmd"

func main() {
	cmd.Execute()
}
