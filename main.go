package main

import "github.com/frahmantamala/teacher-contracts/cmd"

func main() {
	cmd.Execute()
}
