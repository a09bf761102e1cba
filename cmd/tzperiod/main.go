// Command tzperiod resolves a timezone at a point in time and prints the
// period in effect, or reports the gap or fold the instant falls into.
//
// Usage:
//
//	tzperiod -zone America/Chicago -at 2016-11-06T01:30:00
//	tzperiod -zone +02:00 -at 2024-01-01T00:00:00 -utc
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ngrash/go-tzperiod/civil"
	"github.com/ngrash/go-tzperiod/localzone"
	"github.com/ngrash/go-tzperiod/tzdb"
	"github.com/ngrash/go-tzperiod/tzname"
	"github.com/ngrash/go-tzperiod/tzresolve"
)

var (
	dirFlag  = flag.String("dir", "/usr/share/zoneinfo", "zoneinfo directory")
	zoneFlag = flag.String("zone", "", "zone identifier, defaults to the system zone")
	atFlag   = flag.String("at", "", "civil datetime YYYY-MM-DDTHH:MM:SS, defaults to now")
	utcFlag  = flag.Bool("utc", false, "read -at as a UTC instant instead of wall clock time")
	listFlag = flag.Bool("list", false, "list zone names and exit")
)

func main() {
	flag.Parse()

	db, err := tzdb.OpenDir(*dirFlag)
	if err != nil {
		logrus.Fatal(err)
	}

	if *listFlag {
		for _, name := range db.ZoneNames() {
			fmt.Println(name)
		}
		return
	}

	zone := *zoneFlag
	if zone == "" {
		if zone, err = localzone.Detect(); err != nil {
			logrus.Fatal(err)
		}
	}
	canonical, err := tzname.Canonicalize(db, zone)
	if err != nil {
		logrus.Fatal(err)
	}

	at, mode, err := pointInTime(*atFlag, *utcFlag)
	if err != nil {
		logrus.Fatal(err)
	}

	r := tzresolve.New(db)
	p, fold, err := r.Resolve(canonical, at, mode)
	var gap *tzresolve.GapError
	switch {
	case err == nil && fold == nil:
		fmt.Println(p)
	case err == nil:
		fmt.Printf("%s %s is ambiguous (fold):\n", at, canonical)
		fmt.Println("  before:", fold.Before)
		fmt.Println("  after: ", fold.After)
	case errors.As(err, &gap):
		fmt.Printf("%s does not exist in %s (gap)\n", at, canonical)
		os.Exit(1)
	default:
		logrus.Fatal(err)
	}
}

func pointInTime(s string, utc bool) (civil.DateTime, tzdb.Mode, error) {
	mode := tzdb.ModeWall
	if utc {
		mode = tzdb.ModeUTC
	}
	if s == "" {
		now := time.Now().UTC()
		return civil.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second()), tzdb.ModeUTC, nil
	}
	var (
		year, day, hour, minute, second int
		month                           int
	)
	if _, err := fmt.Sscanf(s, "%d-%d-%dT%d:%d:%d", &year, &month, &day, &hour, &minute, &second); err != nil {
		return civil.DateTime{}, mode, fmt.Errorf("parse -at %q: %w", s, err)
	}
	at := civil.Date(year, time.Month(month), day, hour, minute, second)
	return at, mode, at.Validate()
}
