package main

//go:generate go run ../../generate.go

import (
	"fmt"
	"log"
	"os"

	"github.com/retrobank/celpack"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version, V",
		Usage: "print the version",
	}
}

func main() {
	app := cli.NewApp()
	app.Name = "celbankctl"
	app.Usage = "inspect a packed cel-position sheet without re-emitting it"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.IntFlag{
			Name:  "bank-size",
			Usage: "distinct tiles a bank may hold",
			Value: 0,
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "YAML file of shared defaults",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "cels",
			Usage:     "list every cel, its aliases, hotspot and strip count",
			ArgsUsage: "CEL-FILE IMAGE-FILE",
			Action:    withConverter(runCels),
		},
		{
			Name:      "banks",
			Usage:     "list each bank's cel sequence and tile occupancy",
			ArgsUsage: "CEL-FILE IMAGE-FILE",
			Action:    withConverter(runBanks),
		},
		{
			Name:      "tiles",
			Usage:     "report the total unique-tile count and per-bank occupancy",
			ArgsUsage: "CEL-FILE IMAGE-FILE",
			Action:    withConverter(runTiles),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func withConverter(fn func(*cli.Context, *celpack.Converter) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() < 2 {
			cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
		}
		opt, err := celpack.LoadConfigFile(c.String("config"))
		if err != nil {
			return cli.Exit(err, 1)
		}
		if bs := c.Int("bank-size"); bs != 0 {
			opt.BankSize = bs
		}
		conv, err := celpack.NewFromPath(opt, c.Args().Get(0), c.Args().Get(1))
		if err != nil {
			return cli.Exit(err, 1)
		}
		return fn(c, conv)
	}
}

func runCels(c *cli.Context, conv *celpack.Converter) error {
	for _, cel := range conv.Document().Cels {
		aliases := ""
		if len(cel.Aliases) > 0 {
			aliases = fmt.Sprintf(" aliases=%v", cel.Aliases)
		}
		fmt.Printf("%-24s id=%-3d hotspot=(%d,%d) strips=%d%s\n",
			cel.Name, cel.ID, cel.Hotspot.X, cel.Hotspot.Y, len(cel.Strips), aliases)
	}
	return nil
}

func runBanks(c *cli.Context, conv *celpack.Converter) error {
	for i, bank := range conv.Banks() {
		fmt.Printf("bank %d: %d tiles, %d slots\n", i, len(bank.Tiles), len(bank.Cels))
		for _, cel := range bank.Cels {
			if cel == nil {
				fmt.Println("  <align padding>")
				continue
			}
			fmt.Printf("  %s (id=%d)\n", cel.Name, cel.ID)
		}
	}
	return nil
}

func runTiles(c *cli.Context, conv *celpack.Converter) error {
	fmt.Printf("total unique tiles: %d\n", conv.Interner().Len())
	for i, bank := range conv.Banks() {
		fmt.Printf("bank %d: %d/%d tiles used\n", i, len(bank.Tiles), conv.Options.BankSize)
	}
	return nil
}
