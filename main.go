package main

import "github.com/jmehdipour/contact-site/cmd"

func main() {
	cmd.Execute()
}
