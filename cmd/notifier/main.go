package main

import "github.com/timur-mustafin/gamified-task-manager/services/notifier/cli"

func main() {
	cli.Execute()
}
