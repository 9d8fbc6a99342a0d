package cmd

import (
	"bytes"
	"fmt"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/edge"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer"
	"github.com/olekukonko/tablewriter"
)

func displaySessionStats(stats *edge.SessionStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Stage", "Details", "Time"})
	table.Append([]string{"receive", fmt.Sprintf("%d bytes", stats.SceneBytes), stats.ReceiveTime.String()})
	table.Append([]string{"decode", fmt.Sprintf("%d triangles, %d rays", stats.NumTriangles, stats.NumRays), stats.DecodeTime.String()})
	table.Append([]string{"trace", stats.Mode, stats.TraceTime.String()})
	for _, stat := range stats.Tracers {
		table.Append([]string{
			"  " + stat.Id,
			fmt.Sprintf("%d rays (%02.1f %%)", stat.NumRays, stat.RayPercent),
			stat.ComputeTime.String(),
		})
	}
	table.Append([]string{"encode", fmt.Sprintf("%d bytes", stats.ResultBytes), stats.EncodeTime.String()})
	table.Append([]string{"send", "", stats.SendTime.String()})
	table.SetFooter([]string{"", "TOTAL", stats.Total().String()})

	table.Render()
	logger.Noticef("session statistics (%s)\n%s", stats.Peer, buf.String())
}

func displayTraceStats(stats *tracer.Stats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Tracer", "Rays", "% of batch", "Compute time"})
	for _, stat := range stats.Tracers {
		table.Append([]string{
			stat.Id,
			fmt.Sprintf("%d", stat.NumRays),
			fmt.Sprintf("%02.1f %%", stat.RayPercent),
			stat.ComputeTime.String(),
		})
	}
	table.SetFooter([]string{"", "", "TOTAL", stats.TraceTime.String()})

	table.Render()
	logger.Noticef("trace statistics\n%s", buf.String())
}
