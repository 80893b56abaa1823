package main

import "github.com/hurou927/dbml-render/cmd"

func main() {
	cmd.Execute()
}
