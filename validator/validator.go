// Package validator checks submitted campaign files before anything is uploaded.
package validator

import "github.com/anyproto/ar-campaign-server/domain"

const (
	FieldMarker = "marker"
	FieldVideo  = "video"

	MaxVideoSize = 100 * 1024 * 1024
)

var markerTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

const videoType = "video/mp4"

// Errors maps a form field to a message shown next to it.
type Errors map[string]string

func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return &domain.ValidationError{Fields: e}
}

// Validate returns an error per failed field and whether both files passed.
// Missing files are passed as nil.
func Validate(marker, video *domain.Candidate) (errs Errors, ok bool) {
	errs = Errors{}
	if msg := checkMarker(marker); msg != "" {
		errs[FieldMarker] = msg
	}
	if msg := checkVideo(video); msg != "" {
		errs[FieldVideo] = msg
	}
	return errs, len(errs) == 0
}

func checkMarker(marker *domain.Candidate) string {
	switch {
	case marker == nil:
		return "Please select a marker image"
	case !markerTypes[marker.ContentType]:
		return "Marker must be a JPG or PNG image"
	}
	return ""
}

func checkVideo(video *domain.Candidate) string {
	switch {
	case video == nil:
		return "Please select a video file"
	case video.ContentType != videoType:
		return "Video must be in MP4 format"
	case video.Size > MaxVideoSize:
		return "Video must be less than 100MB"
	}
	return ""
}
