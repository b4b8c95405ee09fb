// Package arpage renders the AR page of a campaign: a MindAR image-tracking scene
// that plays the campaign video on top of the detected marker.
package arpage

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"
)

const (
	AframeSrc = "https://aframe.io/releases/1.4.0/aframe.min.js"
	MindarSrc = "https://cdn.jsdelivr.net/gh/hiukim/mind-ar-js@1.2.5/dist/mindar-image-aframe.prod.js"
)

var ErrUnsafeUrl = errors.New("unsafe asset url")

//go:embed page.html.tmpl
var pageSource string

var pageTmpl = template.Must(template.New("arpage").Parse(pageSource))

type pageData struct {
	AframeSrc string
	MindarSrc string
	VideoUrl  string
	MarkerUrl string
}

// Render returns the AR page for the given asset urls.
func Render(videoUrl, markerUrl string) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, videoUrl, markerUrl); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Write(w io.Writer, videoUrl, markerUrl string) error {
	if err := checkUrl(videoUrl); err != nil {
		return fmt.Errorf("video: %w", err)
	}
	if err := checkUrl(markerUrl); err != nil {
		return fmt.Errorf("marker: %w", err)
	}
	return pageTmpl.Execute(w, pageData{
		AframeSrc: AframeSrc,
		MindarSrc: MindarSrc,
		VideoUrl:  videoUrl,
		MarkerUrl: markerUrl,
	})
}

// the marker url is placed into a MindAR property list, where ';' separates properties
const unsafeChars = ";\"'<>` \t\r\n"

func checkUrl(raw string) error {
	if strings.ContainsAny(raw, unsafeChars) {
		return fmt.Errorf("%w: %q", ErrUnsafeUrl, raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafeUrl, err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrUnsafeUrl, raw)
	}
	return nil
}
