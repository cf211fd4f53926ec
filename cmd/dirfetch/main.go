package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/andrewyi/dirfetch/src/server"
)

func main() {

	app := cli.NewApp()

	app.Name = "dirfetch"
	app.Version = "0.1.0"
	app.Usage = "mirror an http directory listing to local disk"
	app.Flags = server.Flags()

	s := server.NewServer()
	app.Action = s.Start

	err := app.Run(os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
