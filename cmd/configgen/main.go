package main

import (
	"flag"
	"log"

	"github.com/MasterLaplace/Optimizing/internal/config"
)

func main() {
	kind := flag.String("kind", config.KindStreamctl, "config kind: streamctl")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind cmd path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			def, err := config.DefaultPath(*kind)
			if err != nil {
				log.Fatal(err)
			}
			path = def
		}
		if err := config.Validate(path, *kind); err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated %s config at %s", *kind, path)
		return
	}

	target := *output
	if target == "" {
		def, err := config.DefaultPath(*kind)
		if err != nil {
			log.Fatal(err)
		}
		target = def
	}

	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}
