package cmd

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const (
	statsViewAddress = "localhost:12600"
	statsViewPath    = "/debug/statsview"
)

// launchStatsView serves runtime charts in a new goroutine.
func launchStatsView(output io.Writer) {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(statsViewAddress))
		mgr := statsview.New()
		mgr.Start()
	}()

	fmt.Fprintf(output, "stats server available at %s%s\n",
		statsViewAddress, statsViewPath)
}
