package main

import (
	"log/slog"
	"time"

	"github.com/couchcryptid/disaster-rtd-service/internal/config"
	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	"github.com/couchcryptid/disaster-rtd-service/internal/ner"
	"github.com/couchcryptid/disaster-rtd-service/internal/source"
	"golang.org/x/time/rate"
)

// hazardJobs maps each hazard code to the job that collects it.
var hazardJobs = map[domain.HazardCode]string{
	domain.HazardDisasterSMS: config.JobDisasterSMS,
	domain.HazardTyphoon:     config.JobTyphoon,
	domain.HazardHeavyRain:   config.JobWarning,
	domain.HazardFlood:       config.JobFlood,
	domain.HazardStrongWind:  config.JobWarning,
	domain.HazardHeavySnow:   config.JobWarning,
	domain.HazardHeatWave:    config.JobWarning,
	domain.HazardColdWave:    config.JobWarning,
	domain.HazardEarthquake:  config.JobEarthquake,
	domain.HazardAirGrade:    config.JobAirGrade,
	domain.HazardAirForecast: config.JobAirForecast,
}

const (
	// warningPace spaces per-station requests to the warning service.
	warningPace = 200 * time.Millisecond
	// chromeBudget is the script time given to the SMS board page.
	chromeBudget = 5 * time.Second
)

// newSources builds one adapter per job, each with its own fetcher and
// circuit breaker.
func newSources(cfg *config.Config, logger *slog.Logger) []source.Source {
	fetcher := func(name string) *source.Fetcher {
		return source.NewFetcher(name, cfg.UpstreamTimeout, logger)
	}

	var extractor domain.LocationExtractor = ner.AddressExtractor{}
	if cfg.NERURL != "" {
		extractor = ner.NewRemoteExtractor(cfg.NERURL, cfg.UpstreamTimeout, extractor, logger)
	}

	renderer := newRenderer(cfg, fetcher(config.JobDisasterSMS))

	return []source.Source{
		source.NewAirForecast(config.JobAirForecast, cfg.DataPortalKey, fetcher(config.JobAirForecast), logger),
		source.NewAirGrade(config.JobAirGrade, cfg.DataPortalKey, fetcher(config.JobAirGrade), logger),
		source.NewEarthquake(config.JobEarthquake, cfg.KMAHubKey, fetcher(config.JobEarthquake), logger),
		source.NewTyphoon(config.JobTyphoon, cfg.WeatherPortalKey, fetcher(config.JobTyphoon), logger),
		source.NewFlood(config.JobFlood, fetcher(config.JobFlood), cfg.FloodStatusChangeOnly, logger),
		source.NewWarning(config.JobWarning, cfg.WeatherPortalKey, source.WarningStations,
			rate.NewLimiter(rate.Every(warningPace), 1), fetcher(config.JobWarning), logger),
		source.NewDisasterSMS(config.JobDisasterSMS, renderer, extractor, cfg.SMSSeenSize, logger),
	}
}

// newRenderer picks headless Chrome when a browser path is configured. The
// browser gets the upstream timeout on top of its script budget.
func newRenderer(cfg *config.Config, fetcher *source.Fetcher) source.PageRenderer {
	if cfg.ChromePath == "" {
		return source.HTTPRenderer{Fetcher: fetcher}
	}
	return source.ChromeRenderer{
		Path:    cfg.ChromePath,
		Budget:  chromeBudget,
		Timeout: cfg.UpstreamTimeout + chromeBudget,
	}
}
