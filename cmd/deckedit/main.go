package main

import "github.com/dgallion1/deckedit/internal/cmd"

func main() {
	cmd.Execute()
}
