// Package main is the entry point for the chartconv API server
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/james-see/chartconv/pkg/api"
	"github.com/james-see/chartconv/pkg/config"
	"github.com/james-see/chartconv/pkg/converter"
	"github.com/james-see/chartconv/pkg/converter/formats"
)

func main() {
	port := flag.Int("port", 8080, "Server port")
	configFile := flag.String("config", "", "YAML file overriding the chart defaults")
	verbose := flag.Bool("verbose", false, "Log conversion diagnostics")
	flag.Parse()

	if *verbose {
		converter.SetLogger(log.New(os.Stderr, "chartconv: ", log.LstdFlags))
	}

	defaults, err := config.LoadFile(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Starting chartconv API server on port %d...\n", *port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", *port)

	if err := api.StartServer(*port, formats.NewConverter(defaults)); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
