// Command stations counts the tide stations in the NOAA catalog.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/spencer-p/tidecal/pkg/noaa"
)

func main() {
	var (
		list    = flag.Bool("list", false, "print every station instead of the count")
		timeout = flag.Duration("timeout", time.Minute, "fetch timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := noaa.NewClient(noaa.Options{})
	stations, err := client.ListStations(ctx)
	if err != nil {
		log.Fatalf("Failed to retrieve tide station list: %v", err)
	}

	if *list {
		for _, s := range stations {
			fmt.Printf("%s\t%s\n", s.ID, s.Name)
		}
	}
	fmt.Println(len(stations))
}
