package diff

import (
	"context"
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/versus-room/internal/imagehash"
	"github.com/DoyleJ11/versus-room/internal/seat"
)

var (
	ErrNoImage  = errors.New("screenshot missing or empty")
	ErrTooLarge = errors.New("screenshot too large")
)

// Bounds on a screenshot and on the canvas two screenshots are drawn onto.
const (
	MaxSide   = 8192
	MaxPixels = 1 << 25
)

// CheckSize rejects dimensions beyond MaxSide or MaxPixels.
func CheckSize(w, h int) error {
	if w > MaxSide || h > MaxSide || w*h > MaxPixels {
		return fmt.Errorf("%w: %dx%d", ErrTooLarge, w, h)
	}
	return nil
}

// Result is the outcome of comparing two screenshots.
type Result struct {
	Width, Height int
	Old, New      []seat.Fingerprint
	Assignments   []Assignment

	// Entered and Left are sorted slot labels for the room event log.
	Entered []string
	Left    []string
}

type Engine struct {
	Analyzer   *seat.Analyzer
	Thresholds Thresholds
	Log        *zap.Logger
}

func NewEngine(a *seat.Analyzer, th Thresholds, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{Analyzer: a, Thresholds: th, Log: log}
}

// Canvas returns the size both screenshots are drawn at: the larger width and
// the larger height.
func Canvas(old, new image.Image) (w, h int) {
	ob, nb := old.Bounds(), new.Bounds()
	return max(ob.Dx(), nb.Dx()), max(ob.Dy(), nb.Dy())
}

// Normalize draws img onto a w×h RGBA canvas, stretching when sizes differ.
func Normalize(img image.Image, w, h int) *image.RGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	return imagehash.Resize(img, w, h)
}

// Compute fingerprints both screenshots concurrently and matches them.
func (e *Engine) Compute(ctx context.Context, old, new image.Image) (Result, error) {
	if old == nil || new == nil || old.Bounds().Empty() || new.Bounds().Empty() {
		return Result{}, ErrNoImage
	}
	w, h := Canvas(old, new)
	if err := CheckSize(w, h); err != nil {
		return Result{}, err
	}
	res := Result{Width: w, Height: h}

	g, ctx := errgroup.WithContext(ctx)
	analyze := func(img image.Image, out *[]seat.Fingerprint) func() error {
		return func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			*out = e.Analyzer.AnalyzeAll(Normalize(img, w, h))
			return nil
		}
	}
	g.Go(analyze(old, &res.Old))
	g.Go(analyze(new, &res.New))
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res.Assignments = Match(res.Old, res.New, e.Thresholds)
	res.Entered, res.Left = Summary(res.Assignments)

	e.Log.Debug("screenshot diff",
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Int("assignments", len(res.Assignments)),
		zap.Strings("entered", res.Entered),
		zap.Strings("left", res.Left),
	)
	return res, nil
}
