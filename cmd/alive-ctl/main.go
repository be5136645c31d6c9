package main

import "github.com/oshokin/still-alive/cmd/alive-ctl/cmd"

func main() {
	cmd.Execute()
}
