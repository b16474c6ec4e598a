//       _      _  __ _      _ _
//    __| |_ __(_)/ _| |_ __| | |__
//   / _` | '__| | |_| __/ _` | '_ \
//  | (_| | |  | |  _| || (_| | |_) |
//   \__,_|_|  |_|_|  \__\__,_|_.__/
//
//  Copyright © 2021 - 2026 DriftDB B.V. All rights reserved.
//
//  CONTACT: hello@driftdb.io
//

// driftdb-inspect dumps the durable overlay store for debugging. It reads
// the same bolt file the client writes, so it must not run against a live
// client.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/driftdb/driftdb/adapters/repos/overlays"
)

func main() {
	logger := logrus.New()

	app := &cli.App{
		Name:  "driftdb-inspect",
		Usage: "inspect a driftdb overlay store",
		Commands: []*cli.Command{
			{
				Name:  "overlays",
				Usage: "list the persisted overlays of a user",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Usage:    "path to the overlay store file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "user id to inspect (empty for the unauthenticated user)",
					},
				},
				Action: func(c *cli.Context) error {
					return listOverlays(c, logger)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.WithError(err).Fatal("inspect failed")
	}
}

func listOverlays(c *cli.Context, logger *logrus.Logger) error {
	store := overlays.NewStore(c.String("db"), logger)
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	return store.View(c.Context, func(tx *overlays.Tx) error {
		cache := overlays.NewBoltCache(c.String("user"), logger, nil)
		return cache.ForEachOverlay(tx, func(info overlays.OverlayInfo) error {
			fmt.Printf("%-40s batch=%-6d %s\n", info.Key, info.LargestBatchID, info.MutationType)
			return nil
		})
	})
}
