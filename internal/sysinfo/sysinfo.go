// Package sysinfo captures a host snapshot for the run report, so a
// result artifact can be tied back to the machine that produced it.
package sysinfo

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot describes the benchmark host.
type Snapshot struct {
	Arch     string
	Hostname string
	Platform string
	CPUCount int
	CPUMHz   float64
	RAMGB    float64
}

// Collect gathers the snapshot. Fields that cannot be read stay at
// their zero value; benchmarks still run on hosts gopsutil cannot
// fully describe.
func Collect() Snapshot {
	s := Snapshot{Arch: runtime.GOARCH}

	if hostStat, err := host.Info(); err == nil {
		s.Hostname = hostStat.Hostname
		s.Platform = hostStat.Platform
	}

	if cpuStat, err := cpu.Info(); err == nil && len(cpuStat) > 0 {
		s.CPUCount = len(cpuStat)
		totalMHz := 0.0
		for _, c := range cpuStat {
			totalMHz += c.Mhz
		}
		s.CPUMHz = totalMHz / float64(len(cpuStat))
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		s.RAMGB = float64(vmStat.Total) / (1 << 30)
	}

	return s
}

// String renders a one-line description for the report header.
func (s Snapshot) String() string {
	return fmt.Sprintf("%s/%s, %d CPU @ %.0f MHz, %.1f GB RAM (%s)",
		s.Platform, s.Arch, s.CPUCount, s.CPUMHz, s.RAMGB, s.Hostname)
}
