package main

import "github.com/ValentinKolb/dDict/cmd"

func main() {
	cmd.Execute()
}
