package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/plsc/internal/capabilities"
)

var capabilitiesCommand = &cli.Command{
	Name:  "capabilities",
	Usage: "Print the capability manifest a host would advertise at initialization",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "profile",
			Usage: "One of production, ga_lock, all",
			Value: "production",
		},
	},
	Action: func(c *cli.Context) error {
		var flags capabilities.Flags
		switch c.String("profile") {
		case "production":
			flags = capabilities.Production()
		case "ga_lock":
			flags = capabilities.GALock()
		case "all":
			flags = capabilities.All()
		default:
			return usageError("unknown profile %q: expected production, ga_lock, or all", c.String("profile"))
		}

		manifest := capabilities.ForFlags(flags)
		out, err := json.MarshalIndent(manifest, "", "  ")
		if err != nil {
			return &exitCode{code: exitUnhandled, err: fmt.Errorf("encoding manifest: %w", err)}
		}
		fmt.Println(string(out))
		return nil
	},
}
