package main

import "i18n-refactor/internal/cli"

func main() {
	cli.Execute()
}
