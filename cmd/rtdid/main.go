// Command rtdid prints the record ID the service assigns to an event, so a
// support request quoting a message can be matched to its stored row.
//
// Usage:
//
//	go run ./cmd/rtdid \
//	  -code 51 \
//	  -time "2025-05-15 14:12:30" \
//	  -loc "경북 구미시 남남서쪽 10km 지역" \
//	  -detail "magnitude: 2.1" -detail "location: 경북 구미시 남남서쪽 10km 지역"
//
// -time is KST wall-clock unless it carries an RFC 3339 offset.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("rtdid", flag.ContinueOnError)
	code := fs.String("code", "", "hazard code or name (e.g. 51 or earthquake)")
	at := fs.String("time", "", `occurrence time, "2006-01-02 15:04:05" KST or RFC 3339`)
	loc := fs.String("loc", "", "location text exactly as stored")
	verbose := fs.Bool("v", false, "also print the identity key")
	var details []string
	fs.Func("detail", "detail entry, repeat in stored order", func(s string) error {
		details = append(details, s)
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *code == "" || *at == "" {
		fs.Usage()
		return fmt.Errorf("missing required flags: -code, -time")
	}

	hazard, err := domain.ParseHazardCode(*code)
	if err != nil {
		return err
	}
	occurred, err := parseTime(*at)
	if err != nil {
		return err
	}

	ev := domain.CandidateEvent{
		HazardCode:   hazard,
		OccurredAt:   occurred,
		LocationText: *loc,
		Details:      details,
	}
	if *verbose {
		fmt.Fprintf(out, "key: %s\n", domain.IdentityKey(ev))
	}
	fmt.Fprintln(out, domain.GenerateID(ev))
	return nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := domain.ParseKST("2006-01-02 15:04:05", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -time %q: %w", s, err)
	}
	return t, nil
}
