package cmd

import (
	"github.com/bruin-data/ecomstar/pkg/config"
	"github.com/urfave/cli/v2"
)

func Init() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "create a starter config file",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "type",
				Usage: "the warehouse type, 'mysql' or 'postgres'",
				Value: "mysql",
			},
		},
		Action: func(c *cli.Context) error {
			configFile := c.String(configFlagName)
			cm, err := config.Init(fs, configFile, c.String("type"))
			if err != nil {
				errorPrinter.Printf("Failed to create the config file: %v\n", err)
				return cli.Exit("", 1)
			}

			successPrinter.Printf("Created '%s' with a %s connection in the '%s' environment.\n", cm.Path(), cm.SelectedEnvironment.Connection.Type(), cm.SelectedEnvironmentName)
			infoPrinter.Println("Fill in the credentials, or set them through ECOMSTAR_DB_* variables or a .env file.")
			return nil
		},
	}
}
