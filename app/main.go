package main

import "github.com/apernet/udpsock/app/cmd"

func main() {
	cmd.Execute()
}
