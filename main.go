package main

import (
	"github.com/paywatch/paywatch/cmd"
	"github.com/paywatch/paywatch/internal/logging"
)

func main() {
	logging.Init("paywatch")
	cmd.Execute()
}
