package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/stuarthighley/wadlevel"
	"github.com/stuarthighley/wadlevel/internal/archive"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalln(err)
	}
	if err := run(cfg, os.Stdout); err != nil {
		log.Fatalln(err)
	}
}

func parseFlags(args []string) (Config, error) {
	fs := flag.NewFlagSet("wadlevel", flag.ContinueOnError)
	configFile := fs.String("config", "", "YAML config file")
	wadFile := fs.String("wad", "", "WAD file")
	mapName := fs.String("map", "", "Level name, e.g. E1M1 or MAP01")
	verbose := fs.Bool("v", false, "Log decoding progress")
	printTree := fs.Bool("tree", false, "Print the BSP tree")
	from := fs.String("from", "", "Viewpoint x,y for traversal order")
	var probes pointList
	fs.Var(&probes, "at", "Point x,y to locate (repeatable)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	var cfg Config
	if *configFile != "" {
		var err error
		if cfg, err = loadConfig(*configFile); err != nil {
			return cfg, err
		}
	}

	// Flags given on the command line win over the file.
	var ferr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "wad":
			cfg.WAD = *wadFile
		case "map":
			cfg.Map = *mapName
		case "v":
			cfg.Verbose = *verbose
		case "tree":
			cfg.PrintTree = *printTree
		case "at":
			cfg.Probes = probes
		case "from":
			p, err := parsePoint(*from)
			if err != nil {
				ferr = err
				return
			}
			cfg.Viewpoint = &p
		}
	})
	if ferr != nil {
		return cfg, ferr
	}
	if cfg.WAD == "" {
		return cfg, fmt.Errorf("no WAD file given")
	}
	return cfg, nil
}

func run(cfg Config, out io.Writer) error {
	if cfg.Verbose {
		l := log.New(os.Stdout, "", log.LstdFlags)
		wadlevel.SetLogger(l)
		archive.SetLogger(l)
	}

	a, err := archive.Open(cfg.WAD)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Map == "" {
		for _, name := range a.LevelNames() {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	lumps, format, err := a.ReadLevel(cfg.Map)
	if err != nil {
		return err
	}
	level, err := wadlevel.LoadLevel(lumps, format)
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.Map, err)
	}
	return report(level, cfg, out)
}

func report(level *wadlevel.Level, cfg Config, out io.Writer) error {
	m, t := level.Map, level.Tree
	fmt.Fprintf(out, "%s (%v): %d things, %d vertexes, %d lines, %d sides, %d sectors\n",
		cfg.Map, level.Format, len(level.Things), m.NumVertexes(), m.NumLines(), m.NumSideDefs(), m.NumSectors())
	fmt.Fprintf(out, "%d segs, %d sub sectors, %d nodes, depth %d\n",
		m.NumSegs(), m.NumSubSectors(), t.NumNodes(), t.Depth())

	if cfg.PrintTree {
		if err := t.Print(out); err != nil {
			return err
		}
	}

	for _, p := range cfg.Probes {
		ss, secID := level.SubSectorAt(p.X, p.Y)
		sec, _ := m.Sector(secID)
		fmt.Fprintf(out, "%v: subsector %d, sector %d (floor %d %s, ceiling %d %s, light %d)\n",
			p, ss, secID, sec.FloorHeight, sec.FloorTexture, sec.CeilingHeight, sec.CeilingTexture, sec.LightLevel)
	}

	if cfg.Viewpoint != nil {
		fmt.Fprintf(out, "back to front from %v:", *cfg.Viewpoint)
		for ss := range t.BackToFront(cfg.Viewpoint.X, cfg.Viewpoint.Y) {
			fmt.Fprintf(out, " %d", ss)
		}
		fmt.Fprintln(out)
	}
	return nil
}
