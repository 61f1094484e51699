package main

import "github.com/vibast-solutions/ms-go-taskboard-auth/cmd"

func main() {
	cmd.Execute()
}
