package domain

import (
	"fmt"
	"strconv"
)

// HazardCode identifies the type of a disaster event.
type HazardCode int

const (
	HazardDisasterSMS HazardCode = 21
	HazardTyphoon     HazardCode = 31
	HazardHeavyRain   HazardCode = 32
	HazardFlood       HazardCode = 33
	HazardStrongWind  HazardCode = 34
	HazardHeavySnow   HazardCode = 35
	HazardHeatWave    HazardCode = 41
	HazardColdWave    HazardCode = 42
	HazardEarthquake  HazardCode = 51
	HazardAirGrade    HazardCode = 71
	HazardAirForecast HazardCode = 72
)

var hazardNames = map[HazardCode]string{
	HazardDisasterSMS: "disaster_sms",
	HazardTyphoon:     "typhoon",
	HazardHeavyRain:   "heavy_rain",
	HazardFlood:       "flood",
	HazardStrongWind:  "strong_wind",
	HazardHeavySnow:   "heavy_snow",
	HazardHeatWave:    "heat_wave",
	HazardColdWave:    "cold_wave",
	HazardEarthquake:  "earthquake",
	HazardAirGrade:    "air_grade",
	HazardAirForecast: "air_forecast",
}

// HazardCodes returns every known hazard code in ascending order.
func HazardCodes() []HazardCode {
	return []HazardCode{
		HazardDisasterSMS, HazardTyphoon, HazardHeavyRain, HazardFlood, HazardStrongWind,
		HazardHeavySnow, HazardHeatWave, HazardColdWave, HazardEarthquake, HazardAirGrade,
		HazardAirForecast,
	}
}

// Valid reports whether c is one of the known hazard codes.
func (c HazardCode) Valid() bool {
	_, ok := hazardNames[c]
	return ok
}

func (c HazardCode) String() string {
	if name, ok := hazardNames[c]; ok {
		return name
	}
	return "hazard_" + strconv.Itoa(int(c))
}

// ParseHazardCode accepts either the numeric code ("51") or the name ("earthquake").
func ParseHazardCode(s string) (HazardCode, error) {
	if n, err := strconv.Atoi(s); err == nil {
		c := HazardCode(n)
		if !c.Valid() {
			return 0, fmt.Errorf("unknown hazard code %d", n)
		}
		return c, nil
	}
	for code, name := range hazardNames {
		if name == s {
			return code, nil
		}
	}
	return 0, fmt.Errorf("unknown hazard %q", s)
}
