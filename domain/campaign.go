package domain

import (
	"io"
	"time"
)

type AssetKind string

const (
	AssetMarker AssetKind = "marker"
	AssetVideo  AssetKind = "video"
)

type Campaign struct {
	Id        string    `json:"id" bson:"_id"`
	VideoUrl  string    `json:"video_url" bson:"videoUrl"`
	MarkerUrl string    `json:"marker_url" bson:"markerUrl"`
	HostedUrl string    `json:"hosted_url" bson:"hostedUrl"`
	MarkerKey string    `json:"marker_key" bson:"markerKey"`
	VideoKey  string    `json:"video_key" bson:"videoKey"`
	CreatedAt time.Time `json:"created_at" bson:"createdAt"`
}

// Candidate is a file submitted for a campaign, before validation.
type Candidate struct {
	Name        string
	ContentType string
	Size        int64
	io.Reader
}
