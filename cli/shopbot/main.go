package main

import (
	"os"

	shopbotcmder "github.com/anycompanyretail/shopbot/cmd/shopbot"
)

func main() {
	cmd := shopbotcmder.NewShopbotCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
