package main

import (
	"os"

	"yatube/service"
)

func main() {
	os.Exit(service.Execute(os.Args[1:]))
}
