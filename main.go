package main

import "prodreport/cmd"

func main() {
	cmd.Execute()
}
