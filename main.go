package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spencer-p/tidecal/pkg/data"
	"github.com/spencer-p/tidecal/pkg/handlers"
	"github.com/spencer-p/tidecal/pkg/metrics"
	"github.com/spencer-p/tidecal/pkg/noaa"
)

type Config struct {
	Port    string `default:"8080"`
	Prefix  string `default:"/"`
	NOAAURL string `envconfig:"NOAA_URL"`
}

func main() {
	var env Config
	if err := envconfig.Process("", &env); err != nil {
		log.Fatal(err.Error())
	}

	db, err := data.PostgresFromEnv()
	if err != nil {
		log.Fatalf("Failed to set up preference database: %v", err)
	}
	if db == nil {
		log.Print("No preference database configured; preferences are cookie only")
	}

	r := mux.NewRouter().StrictSlash(true)
	r.Handle("/metrics", promhttp.Handler())
	s := r.PathPrefix(env.Prefix).Subrouter()
	handlers.Register(s, handlers.Config{
		Prefix: env.Prefix,
		Client: noaa.NewClient(noaa.Options{BaseURL: env.NOAAURL}),
		DB:     db,
	})

	srv := &http.Server{
		Handler:      metrics.LatencyHandler(r),
		Addr:         "0.0.0.0:" + env.Port,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
	log.Printf("Listening and serving on %s%s", srv.Addr, env.Prefix)
	log.Fatal(srv.ListenAndServe())
}
