package main

import "qrbooks/cmd"

func main() {
	cmd.Execute()
}
