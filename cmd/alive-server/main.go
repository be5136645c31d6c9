package main

import "github.com/oshokin/still-alive/cmd/alive-server/cmd"

func main() {
	cmd.Execute()
}
