package main

import "github.com/goattech/ms-go-checkout/cmd"

func main() {
	cmd.Execute()
}
