package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

// CLI
func main() {
	app := cli.App{
		Name:     "Inazuma",
		HelpName: "Inazuma-meter",
		Version:  "0.99.indev",
		Usage:    "agent-side CLI of Project Inazuma: encrypt demand readings, commit, and run demo rounds",
		Commands: []*cli.Command{
			{
				Name:  "demo",
				Usage: "run a full verifiable aggregation round locally",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "agents",
						Value: 5,
						Usage: "number of household agents",
					},
					&cli.Float64Flag{
						Name:  "capacity",
						Value: 100.0,
						Usage: "grid capacity in kW",
					},
					&cli.BoolFlag{
						Name:  "cheat",
						Usage: "make the coordinator substitute a forged ciphertext",
					},
				},
				Action: runDemo,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
