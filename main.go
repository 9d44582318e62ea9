package main

import "nitpickr-api/cmd"

func main() {
	cmd.Execute()
}
