package sysinfo

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// Info is a best-effort host snapshot. Only Hostname is guaranteed.
type Info struct {
	Hostname        string     `json:"hostname"`
	Platform        string     `json:"platform,omitempty"`
	Architecture    string     `json:"architecture,omitempty"`
	Kernel          string     `json:"kernel,omitempty"`
	OS              string     `json:"os,omitempty"`
	PlatformVersion string     `json:"platform_version,omitempty"`
	CPUCount        int        `json:"cpu_count,omitempty"`
	MemoryTotal     uint64     `json:"memory_total,omitempty"`
	DiskUsage       *DiskUsage `json:"disk_usage,omitempty"`
}

// DiskUsage describes the root filesystem.
type DiskUsage struct {
	Total   uint64  `json:"total"`
	Used    uint64  `json:"used"`
	Free    uint64  `json:"free"`
	Percent float64 `json:"percent"`
}

// Collector gathers host facts.
type Collector func(ctx context.Context) Info

// Collect gathers the full snapshot, degrading to hostname only when any
// extended fact cannot be read.
func Collect(ctx context.Context) Info {
	info, err := collectExtended(ctx)
	if err != nil {
		return Info{Hostname: hostname()}
	}
	return info
}

// Hostname returns a hostname-only snapshot.
func Hostname(context.Context) Info {
	return Info{Hostname: hostname()}
}

func collectExtended(ctx context.Context) (Info, error) {
	h, err := host.InfoWithContext(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("host info: %w", err)
	}
	cpus, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return Info{}, fmt.Errorf("cpu count: %w", err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("memory: %w", err)
	}
	du, err := disk.UsageWithContext(ctx, "/")
	if err != nil {
		return Info{}, fmt.Errorf("disk usage: %w", err)
	}

	name := h.Hostname
	if name == "" {
		name = hostname()
	}
	return Info{
		Hostname:        name,
		Platform:        runtime.GOOS,
		Architecture:    h.KernelArch,
		Kernel:          h.KernelVersion,
		OS:              h.Platform,
		PlatformVersion: h.PlatformVersion,
		CPUCount:        cpus,
		MemoryTotal:     vm.Total,
		DiskUsage: &DiskUsage{
			Total:   du.Total,
			Used:    du.Used,
			Free:    du.Free,
			Percent: du.UsedPercent,
		},
	}, nil
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}
