package cmd

import (
	"os"

	"github.com/bruin-data/ecomstar/pkg/config"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"
)

func Environments(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:  "environments",
		Usage: "manage the environments defined in the config file",
		Subcommands: []*cli.Command{
			ListEnvironments(),
			PingEnvironment(isDebug),
		},
	}
}

func ListEnvironments() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list the environments and their warehouse connections",
		Flags: []cli.Flag{configFlag()},
		Action: func(c *cli.Context) error {
			configFile := c.String(configFlagName)
			cm, err := config.LoadFromFile(fs, configFile)
			if err != nil {
				errorPrinter.Printf("Failed to load the config file at '%s': %v\n", configFile, err)
				return cli.Exit("", 1)
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"Environment", "Connection", "Default"})
			for _, name := range cm.EnvironmentNames() {
				isDefault := ""
				if name == cm.DefaultEnvironmentName {
					isDefault = "yes"
				}
				t.AppendRow(table.Row{name, cm.Environments[name].Connection.Type(), isDefault})
			}
			t.Render()

			return nil
		},
	}
}

func PingEnvironment(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:  "test",
		Usage: "check that the warehouse of an environment is reachable",
		Flags: []cli.Flag{configFlag(), environmentFlag()},
		Action: func(c *cli.Context) error {
			s, err := openSession(c, *isDebug)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.client.Ping(c.Context); err != nil {
				errorPrinter.Printf("Failed to reach the warehouse of '%s': %v\n", s.config.SelectedEnvironmentName, err)
				return cli.Exit("", 1)
			}

			successPrinter.Printf("Successfully connected to the %s warehouse of '%s'.\n", s.client.Dialect().Name(), s.config.SelectedEnvironmentName)
			return nil
		},
	}
}
