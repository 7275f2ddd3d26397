package main

import "github.com/lxb523532595/gendata/cmd"

func main() {
	cmd.Execute()
}
