// Command riseset prints sunrise, solar noon and sunset for a run of days
// as YAML.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-aclock/internal/config"
	"github.com/coreman2200/funtimes-aclock/internal/solar"
)

type day struct {
	Date    string `yaml:"date"`
	Sunrise string `yaml:"sunrise,omitempty"`
	Noon    string `yaml:"noon"`
	Sunset  string `yaml:"sunset,omitempty"`
	Polar   string `yaml:"polar,omitempty"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("riseset", pflag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "path to aclock.yaml")
		lat        = fs.Float64("lat", 0, "latitude in degrees")
		lon        = fs.Float64("lon", 0, "longitude in degrees")
		from       = fs.String("from", "", "first date (YYYY-MM-DD); default today")
		days       = fs.Int("days", 365, "number of days")
	)
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if *days < 0 {
		return fmt.Errorf("--days must not be negative, got %d", *days)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if fs.Changed("lat") {
		cfg.Location.Latitude = *lat
	}
	if fs.Changed("lon") {
		cfg.Location.Longitude = *lon
	}
	g, err := cfg.Geo()
	if err != nil {
		return err
	}

	start := time.Now()
	if *from != "" {
		if start, err = time.ParseInLocation(time.DateOnly, *from, time.Local); err != nil {
			return fmt.Errorf("--from: %w", err)
		}
	}
	out := struct {
		Location string `yaml:"location"`
		Days     []day  `yaml:"days"`
	}{Location: g.String()}
	for _, e := range solar.Ephemerides(start, *days, g) {
		out.Days = append(out.Days, format(e, start.Location()))
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(out)
}

const clock = "15:04Z07:00"

func format(e solar.Ephemeris, loc *time.Location) day {
	d := day{Date: e.Date.Format(time.DateOnly), Noon: e.Noon.In(loc).Format(clock)}
	switch {
	case e.PolarDay:
		d.Polar = "day"
	case e.PolarNight:
		d.Polar = "night"
	default:
		d.Sunrise = e.Sunrise.In(loc).Format(clock)
		d.Sunset = e.Sunset.In(loc).Format(clock)
	}
	return d
}
