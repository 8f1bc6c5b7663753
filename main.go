package main

import "github.com/frahmantamala/retail-backoffice/cmd"

func main() {
	cmd.Execute()
}
