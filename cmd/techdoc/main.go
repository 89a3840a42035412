package main

import "github.com/mmynk/techdoc/internal/cli"

func main() {
	cli.Execute()
}
