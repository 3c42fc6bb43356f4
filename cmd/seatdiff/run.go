package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"text/tabwriter"

	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"github.com/DoyleJ11/versus-room/internal/diff"
	"github.com/DoyleJ11/versus-room/internal/seat"
)

type report struct {
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Assignments []reportLine `json:"assignments"`
	Entered     []string     `json:"entered"`
	Left        []string     `json:"left"`
}

type reportLine struct {
	diff.Assignment
	Label string `json:"label"`
	Tag   string `json:"tag,omitempty"`
	Ready bool   `json:"ready"`
}

func run(ctx context.Context, cfg *Config, out io.Writer) error {
	log := zap.NewNop()
	if cfg.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer func() { _ = l.Sync() }()
		log = l
	}

	old, err := loadImage(cfg, cfg.old)
	if err != nil {
		return err
	}
	cur, err := loadImage(cfg, cfg.new)
	if err != nil {
		return err
	}

	ref, err := seat.ReadyReference()
	if err != nil {
		return fmt.Errorf("ready badge: %w", err)
	}
	res, err := diff.NewEngine(seat.NewAnalyzer(ref), cfg.thresholds(), log).Compute(ctx, old, cur)
	if err != nil {
		return err
	}

	rep := newReport(res)
	if cfg.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return printReport(out, rep)
}

func loadImage(cfg *Config, path string) (image.Image, error) {
	f, err := cfg.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hdr, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := diff.CheckSize(hdr.Width, hdr.Height); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func newReport(res diff.Result) report {
	rep := report{
		Width:       res.Width,
		Height:      res.Height,
		Assignments: make([]reportLine, 0, len(res.Assignments)),
		Entered:     res.Entered,
		Left:        res.Left,
	}
	if rep.Entered == nil {
		rep.Entered = []string{}
	}
	if rep.Left == nil {
		rep.Left = []string{}
	}
	for _, a := range res.Assignments {
		ready := false
		if a.New != nil {
			ready = res.New[*a.New].Ready
		}
		rep.Assignments = append(rep.Assignments, reportLine{Assignment: a, Label: a.Label(), Tag: a.Tag(), Ready: ready})
	}
	return rep
}

func printReport(out io.Writer, rep report) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, l := range rep.Assignments {
		ready := ""
		if l.Ready {
			ready = "ready"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.Label, l.Kind, l.Tag, ready)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%d entered, %d left\n", len(rep.Entered), len(rep.Left))
	return err
}
