package httpapi

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"

	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"github.com/DoyleJ11/versus-room/internal/diff"
	"github.com/DoyleJ11/versus-room/internal/scheduler"
	"github.com/DoyleJ11/versus-room/internal/seat"
	"github.com/DoyleJ11/versus-room/internal/types"
)

const maxUpload = 32 << 20

// SeatChange is one row of a diff report.
type SeatChange struct {
	diff.Assignment
	Label     string `json:"label"`
	Tag       string `json:"tag,omitempty"`
	Ready     bool   `json:"ready"`
	Thumbnail string `json:"thumbnail,omitempty"` // PNG data URL
}

type DiffResponse struct {
	Width   int          `json:"width"`
	Height  int          `json:"height"`
	Changes []SeatChange `json:"changes"`
	Entered []string     `json:"entered"`
	Left    []string     `json:"left"`
	Room    RoomResponse `json:"room"`
}

// analyze compares the multipart screenshots "old" and "new" and records
// the seats that entered or left in the room's event log.
func (a *api) analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		WriteError(w, types.Body(types.CodeBadRequest))
		return
	}
	defer r.MultipartForm.RemoveAll()

	old, err := formImage(r, "old")
	if err != nil {
		a.log.Debug("old screenshot rejected", zap.Error(err))
		WriteError(w, uploadError(err))
		return
	}
	cur, err := formImage(r, "new")
	if err != nil {
		a.log.Debug("new screenshot rejected", zap.Error(err))
		WriteError(w, uploadError(err))
		return
	}

	result, err := a.diff.Compute(r.Context(), old, cur)
	if err != nil {
		WriteError(w, uploadError(err))
		return
	}

	res, err := roomFrom(r).Do(r.Context(), scheduler.Command{
		Type:    scheduler.CmdRecordAnalysis,
		Entered: result.Entered,
		Left:    result.Left,
	})
	if err == nil {
		err = res.Err
	}
	if err != nil {
		WriteError(w, types.ErrorOf(err))
		return
	}

	WriteJSON(w, http.StatusOK, DiffResponse{
		Width:   result.Width,
		Height:  result.Height,
		Changes: changes(result),
		Entered: nonNil(result.Entered),
		Left:    nonNil(result.Left),
		Room:    RoomResponse{View: res.View, Events: res.Events, Warning: res.Warning},
	})
}

func uploadError(err error) types.ErrorBody {
	switch {
	case errors.Is(err, diff.ErrTooLarge):
		return types.Body(types.CodeTooLarge)
	case errors.Is(err, diff.ErrNoImage), errors.Is(err, errUnreadableImage):
		return types.Body(types.CodeBadRequest)
	default:
		return types.ErrorOf(err)
	}
}

var errUnreadableImage = errors.New("unreadable screenshot")

// formImage decodes the upload in field once its header shows dimensions
// within the diff bounds.
func formImage(r *http.Request, field string) (image.Image, error) {
	f, _, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errUnreadableImage, field, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errUnreadableImage, field, err)
	}
	if err := diff.CheckSize(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errUnreadableImage, field, err)
	}
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errUnreadableImage, field, err)
	}
	return img, nil
}

// changes describes each assignment by the seat the player now occupies, or
// the seat they left.
func changes(res diff.Result) []SeatChange {
	out := make([]SeatChange, 0, len(res.Assignments))
	for _, as := range res.Assignments {
		var fp seat.Fingerprint
		if as.New != nil {
			fp = res.New[*as.New]
		} else {
			fp = res.Old[*as.Old]
		}
		out = append(out, SeatChange{
			Assignment: as,
			Label:      as.Label(),
			Tag:        as.Tag(),
			Ready:      fp.Ready,
			Thumbnail:  dataURL(fp.Thumbnail),
		})
	}
	return out
}

func dataURL(img *image.RGBA) string {
	if img == nil || img.Rect.Empty() {
		return ""
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
