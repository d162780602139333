package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/stine-ri/wings-of-memory/memorialservice"
)

func main() {
	buildTarget := flag.String("build-target", "", "Override BUILD_TARGET (local, cloud-dev, cloud)")
	flag.Parse()

	if err := memorialservice.Run(*buildTarget); err != nil {
		log.Error().Err(err).Msg("memorial-service exited with error")
		os.Exit(1)
	}
}
