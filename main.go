package main

import "github.com/chukul/ec2provision/cmd"

func main() {
	cmd.Execute()
}
