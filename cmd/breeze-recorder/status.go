package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/breeze-rmm/recorder/internal/capture"
	"github.com/breeze-rmm/recorder/internal/config"
	"github.com/breeze-rmm/recorder/internal/database"
	"github.com/shirou/gopsutil/v3/host"
	"gopkg.in/yaml.v3"
)

type displayStatus struct {
	Index     int    `yaml:"index"`
	Name      string `yaml:"name"`
	Primary   bool   `yaml:"primary"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	OutputW   int    `yaml:"output_width,omitempty"`
	OutputH   int    `yaml:"output_height,omitempty"`
	SizeError string `yaml:"size_error,omitempty"`
}

type hostStatus struct {
	Hostname string `yaml:"hostname"`
	OS       string `yaml:"os"`
	Platform string `yaml:"platform"`
	Kernel   string `yaml:"kernel"`
	Uptime   string `yaml:"uptime"`
}

type statusReport struct {
	Version  string          `yaml:"version"`
	Host     *hostStatus     `yaml:"host,omitempty"`
	Config   *config.Config  `yaml:"config"`
	Displays []displayStatus `yaml:"displays"`
	Database string          `yaml:"database"`
	Errors   []string        `yaml:"errors,omitempty"`
}

func printStatus(w io.Writer) error {
	cfg, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}

	report := statusReport{Version: version, Config: cfg}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if info, err := host.InfoWithContext(ctx); err == nil {
		report.Host = &hostStatus{
			Hostname: info.Hostname,
			OS:       info.OS,
			Platform: fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion),
			Kernel:   info.KernelVersion,
			Uptime:   (time.Duration(info.Uptime) * time.Second).String(),
		}
	} else {
		report.Errors = append(report.Errors, fmt.Sprintf("host info: %v", err))
	}

	report.Displays, err = describeDisplays(capture.NewScreenCapturer(cfg.Displays), cfg)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
	}

	switch {
	case cfg.DatabaseURL == "":
		report.Database = "not configured"
	default:
		if err := database.EnsureReady(ctx, cfg.DatabaseURL); err != nil {
			report.Database = "error: " + err.Error()
		} else {
			report.Database = "ready"
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(report)
}
