// Command puzzlegen previews daily puzzles offline: the same generator and
// salt the server uses, without a database or HTTP.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
