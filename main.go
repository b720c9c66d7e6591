package main

import "github.com/ValentinKolb/flatkv/cmd"

func main() {
	cmd.Execute()
}
