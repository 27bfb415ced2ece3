package main

import (
	"os"

	"github.com/retailops/salesuite-app/salesuite/salescli"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := salescli.GetApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
