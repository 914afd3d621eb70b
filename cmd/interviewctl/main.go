// Command interviewctl inspects and exports stored interview sessions and
// mints admin tokens for the HTTP admin routes.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	a := &app{}
	err := newRootCommand(a).Execute()
	a.close()
	if err != nil {
		log.Error().Err(err).Msg("interviewctl failed")
		os.Exit(1)
	}
}
