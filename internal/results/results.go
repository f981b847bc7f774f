// Package results reads the benchmark driver's XML output for the
// exit report. The orchestrator itself never interprets artifacts;
// this parse is display-only and a failed parse never fails a run.
package results

import (
	"encoding/xml"
	"fmt"
	"os"
)

// DriverResult is the subset of the BSBM testdriver XML the report
// shows.
type DriverResult struct {
	QMpH            float64
	QueryMixRuns    int
	TotalRuntime    float64
	ScaleFactor     int
	QueriesReported int
}

// bsbmDoc mirrors the driver's XML layout.
type bsbmDoc struct {
	XMLName  xml.Name `xml:"bsbm"`
	QueryMix struct {
		ScaleFactor  int     `xml:"scalefactor"`
		QueryMixRuns int     `xml:"querymixruns"`
		TotalRuntime float64 `xml:"totalruntime"`
		QMpH         float64 `xml:"qmph"`
	} `xml:"querymix"`
	Queries struct {
		Query []struct {
			Nr string `xml:"nr,attr"`
		} `xml:"query"`
	} `xml:"queries"`
}

// Parse reads one driver artifact.
func Parse(path string) (*DriverResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read result %s: %w", path, err)
	}
	return parseBytes(path, data)
}

func parseBytes(path string, data []byte) (*DriverResult, error) {
	var doc bsbmDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse result %s: %w", path, err)
	}

	return &DriverResult{
		QMpH:            doc.QueryMix.QMpH,
		QueryMixRuns:    doc.QueryMix.QueryMixRuns,
		TotalRuntime:    doc.QueryMix.TotalRuntime,
		ScaleFactor:     doc.QueryMix.ScaleFactor,
		QueriesReported: len(doc.Queries.Query),
	}, nil
}
