package main

import "github.com/timur-mustafin/gamified-task-manager/services/api/cli"

func main() {
	cli.Execute()
}
