// Package main is the entry point for the pongstats CLI, which records beer
// pong tournaments and shows their live stats carousel.
package main

import "github.com/pable/go-pong-stats/cmd"

func main() {
	cmd.Execute()
}
