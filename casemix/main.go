package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/CMSgov/casemix-app/casemix/casemixcli"
)

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetReportCaller(true)
}

func main() {
	app := casemixcli.GetApp()
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
