package main

import "truck-scraper/cli"

func main() {
	cli.Execute()
}
