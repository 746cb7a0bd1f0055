package main

import "policyguard/internal/cli"

func main() {
	cli.Execute()
}
