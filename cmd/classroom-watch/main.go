// classroom-watch prints live engagement figures from a running
// classroom-monitor dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/teslashibe/go-classroom/internal/config"
	"github.com/teslashibe/go-classroom/internal/log"
	"github.com/teslashibe/go-classroom/pkg/aggregate"
	"github.com/teslashibe/go-classroom/pkg/web"
)

func main() {
	addr := flag.String("addr", "localhost:"+config.String(config.EnvHTTPPort, "8080"), "Dashboard address")
	every := flag.Duration("every", time.Second, "Minimum time between printed lines")
	logLevel := flag.String("log-level", config.String(config.EnvLogLevel, "info"), "Log level")
	records := flag.Int("records", 0, "Print the N most recent records and exit")
	stop := flag.Bool("stop", false, "Ask the monitor to stop and exit")
	flag.Parse()

	log.Init(*logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *records > 0 || *stop {
		if err := runCommand(ctx, *addr, *records, *stop); err != nil {
			log.Error("request failed", "error", err)
			os.Exit(1)
		}
		return
	}

	url, err := web.StatusURL(*addr)
	if err != nil {
		log.Error("bad dashboard address", "addr", *addr, "error", err)
		os.Exit(1)
	}

	log.Info("watching", "url", url)
	var last time.Time
	err = web.Watch(ctx, url, func(st web.Status) error {
		if st.Frame == nil {
			fmt.Printf("%s  state=%s  waiting for frames\n", time.Now().Format("15:04:05"), st.State)
			return nil
		}
		if time.Since(last) < *every {
			return nil
		}
		last = time.Now()

		f := st.Frame
		fmt.Printf("%s  frame=%d  students=%d  engaged=%d  instant=%.0f%%  smoothed=%.1f%%\n",
			f.Timestamp.Format("15:04:05"), f.Seq,
			f.Metrics.StudentCount, f.Metrics.EngagedCount,
			f.Metrics.Ratio*100, f.Smoothed*100)
		return nil
	})
	if err != nil {
		log.Error("watch failed", "error", err)
		os.Exit(1)
	}
}

// runCommand performs a one-shot REST call against the dashboard.
func runCommand(ctx context.Context, addr string, records int, stop bool) error {
	client, err := web.NewClient(addr)
	if err != nil {
		return err
	}

	if records > 0 {
		recs, err := client.Recent(ctx, records)
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(aggregate.CSVHeader, ","))
		for i := len(recs) - 1; i >= 0; i-- {
			fmt.Println(strings.Join(recs[i].Fields(), ","))
		}
	}

	if stop {
		if err := client.Stop(ctx); err != nil {
			return err
		}
		log.Info("stop requested", "addr", addr)
	}
	return nil
}
