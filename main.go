package main

import (
	"log"
	"os"

	"github.com/carlmjohnson/versioninfo"
	"github.com/go-playground/validator/v10"
	"github.com/iancoleman/strcase"
	"github.com/urfave/cli/v2"

	"github.com/pdok/tilexpire/expire"
	"github.com/pdok/tilexpire/processing"
	"github.com/pdok/tilexpire/reproj"
)

const SOURCE string = `sourceGpkg`
const TILELIST string = `tileList`
const MAXZOOM string = `maxZoom`
const MINZOOM string = `minZoom`
const PROJECTION string = `projection`
const MAXBBOX string = `maxBbox`
const WORKERS string = `workers`

type config struct {
	MaxZoom    uint32  `validate:"required,max=31"`
	MinZoom    uint32  `validate:"ltefield=MaxZoom"`
	Projection string  `validate:"required"`
	MaxBbox    float64 `validate:"gt=0"`
	Workers    int     `validate:"min=1"`
}

//nolint:funlen
func main() {
	app := cli.NewApp()
	app.Name = "tilexpire"
	app.Usage = "A Golang map tile expiry application"
	app.Version = versioninfo.Short()

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:     SOURCE,
			Aliases:  []string{"s"},
			Usage:    "Source GPKG with the changed features",
			Required: true,
			EnvVars:  []string{strcase.ToScreamingSnake(SOURCE)},
		},
		&cli.StringFlag{
			Name:     TILELIST,
			Aliases:  []string{"o"},
			Usage:    "File to append the expired tile list to, one z/x/y per line",
			Required: true,
			EnvVars:  []string{strcase.ToScreamingSnake(TILELIST)},
		},
		&cli.UintFlag{
			Name:     MAXZOOM,
			Aliases:  []string{"z"},
			Usage:    "Zoom level the dirty tiles are tracked at",
			Required: true,
			EnvVars:  []string{strcase.ToScreamingSnake(MAXZOOM)},
		},
		&cli.UintFlag{
			Name:     MINZOOM,
			Aliases:  []string{"Z"},
			Usage:    "Lowest zoom level to roll the dirty tiles up to. Defaults to the max zoom",
			Required: false,
			EnvVars:  []string{strcase.ToScreamingSnake(MINZOOM)},
		},
		&cli.StringFlag{
			Name:     PROJECTION,
			Aliases:  []string{"p"},
			Usage:    `CRS code of the source coordinates. E.g.: EPSG:3857 or EPSG:4326`,
			Value:    "EPSG:3857",
			Required: false,
			EnvVars:  []string{strcase.ToScreamingSnake(PROJECTION)},
		},
		&cli.Float64Flag{
			Name:     MAXBBOX,
			Aliases:  []string{"b"},
			Usage:    "Maximum width or height a polygon may have, in source CRS units, before its rings are expired as plain lines",
			Value:    20000,
			Required: false,
			EnvVars:  []string{strcase.ToScreamingSnake(MAXBBOX)},
		},
		&cli.IntFlag{
			Name:     WORKERS,
			Aliases:  []string{"w"},
			Usage:    "Number of expiry shards ingesting features in parallel",
			Value:    4,
			Required: false,
			EnvVars:  []string{strcase.ToScreamingSnake(WORKERS)},
		},
	}

	app.Action = func(c *cli.Context) error {
		cfg := config{
			MaxZoom:    uint32(c.Uint(MAXZOOM)),
			MinZoom:    uint32(c.Uint(MINZOOM)),
			Projection: c.String(PROJECTION),
			MaxBbox:    c.Float64(MAXBBOX),
			Workers:    c.Int(WORKERS),
		}
		if !c.IsSet(MINZOOM) {
			cfg.MinZoom = cfg.MaxZoom
		}
		validate := validator.New(validator.WithRequiredStructEnabled())
		if err := validate.Struct(cfg); err != nil {
			return err
		}

		projection, err := reproj.New(cfg.Projection)
		if err != nil {
			return err
		}

		source := SourceGeopackage{}
		source.Init(c.String(SOURCE))
		defer source.Close()

		log.Println("=== start expiring ===")

		primary, err := processing.ExpireFeatures(source, cfg.Workers, func() (*expire.Expirer, error) {
			return expire.New(cfg.MaxZoom, cfg.MaxBbox, projection)
		})
		if err != nil {
			return err
		}

		writer := expire.NewTileListFile(c.String(TILELIST))
		defer writer.Close()
		counting := expire.NewCountingSink(writer)
		if err := primary.OutputAndDestroy(counting, cfg.MinZoom); err != nil {
			return err
		}

		for pair := counting.ZoomCounts().Oldest(); pair != nil; pair = pair.Next() {
			log.Printf("  zoom %2d: %d tiles", pair.Key, pair.Value)
		}
		log.Printf("=== done, %d tiles expired ===", counting.Total())
		return nil
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
