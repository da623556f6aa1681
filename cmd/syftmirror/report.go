package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/goccy/go-json"

	"github.com/openmined/syftmirror/internal/mirror"
)

var (
	red   = color.New(color.FgHiRed, color.Bold).SprintFunc()
	green = color.New(color.FgHiGreen).SprintFunc()
	cyan  = color.New(color.FgHiCyan).SprintFunc()
)

type failureJSON struct {
	Kind  string `json:"kind"`
	Path  string `json:"path"`
	Error string `json:"error"`
}

type reportJSON struct {
	*mirror.PassReport
	Failures []failureJSON `json:"failures,omitempty"`
}

func printReport(w io.Writer, report *mirror.PassReport, asJSON bool) error {
	if asJSON {
		out := reportJSON{PassReport: report}
		for _, f := range report.Stats.Failures {
			out.Failures = append(out.Failures, failureJSON{Kind: f.Kind.String(), Path: f.Path, Error: f.Err.Error()})
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	s := report.Stats
	errs := fmt.Sprint(s.Errors)
	if s.Errors > 0 {
		errs = red(errs)
	} else {
		errs = green(errs)
	}
	_, err := fmt.Fprintf(w, "%s copied %d, updated %d, deleted %d, errors %s (%s in %s)\n",
		cyan("pass "+report.ID),
		s.Copied, s.Updated, s.Deleted, errs,
		humanize.Bytes(uint64(s.BytesCopied)),
		report.Duration.Round(time.Millisecond),
	)
	if err != nil {
		return err
	}
	for _, f := range s.Failures {
		if _, err := fmt.Fprintf(w, "  %s %s: %v\n", red(f.Kind.String()), f.Path, f.Err); err != nil {
			return err
		}
	}
	return nil
}
