package campaign

import (
	"fmt"
	"maps"

	"github.com/anyproto/ar-campaign-server/domain"
)

type Stage string

const (
	StageIdle       Stage = "idle"
	StageValidating Stage = "validating"
	StageUploading  Stage = "uploading"
	StagePersisting Stage = "persisting"
	StageEncoding   Stage = "encoding"
	StageComplete   Stage = "complete"
	StageFailed     Stage = "failed"
)

var transitions = map[Stage][]Stage{
	StageIdle:       {StageValidating},
	StageValidating: {StageUploading, StageFailed},
	StageUploading:  {StagePersisting, StageFailed},
	StagePersisting: {StageEncoding, StageFailed},
	// the record is already persisted when encoding fails, it stays retrievable by id
	StageEncoding:   {StageComplete, StageFailed},
}

func canTransition(from, to Stage) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InProgress reports whether a submission in this stage is still running
func (s Stage) InProgress() bool {
	switch s {
	case StageIdle, StageComplete, StageFailed:
		return false
	}
	return true
}

type Progress struct {
	Marker int `json:"marker"`
	Video  int `json:"video"`
}

// SubmissionState is what a client sees of its latest submission
type SubmissionState struct {
	SessionId  string   `json:"sessionId"`
	Stage      Stage    `json:"stage"`
	CampaignId string   `json:"campaignId,omitempty"`
	Progress   Progress `json:"progress"`
	// FailedAt is the stage the submission failed in
	FailedAt    Stage             `json:"failedAt,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
	Error       string            `json:"error,omitempty"`
	Campaign    *domain.Campaign  `json:"campaign,omitempty"`
	QrCode      string            `json:"qrCode,omitempty"`
}

func (s *SubmissionState) setStage(to Stage) error {
	if !canTransition(s.Stage, to) {
		return fmt.Errorf("invalid submission transition: %s -> %s", s.Stage, to)
	}
	if to == StageFailed {
		s.FailedAt = s.Stage
	}
	s.Stage = to
	return nil
}

func (s *SubmissionState) setProgress(kind domain.AssetKind, percent int) {
	switch kind {
	case domain.AssetMarker:
		s.Progress.Marker = max(s.Progress.Marker, percent)
	case domain.AssetVideo:
		s.Progress.Video = max(s.Progress.Video, percent)
	}
}

func (s SubmissionState) copy() SubmissionState {
	if s.FieldErrors != nil {
		s.FieldErrors = maps.Clone(s.FieldErrors)
	}
	if s.Campaign != nil {
		campaign := *s.Campaign
		s.Campaign = &campaign
	}
	return s
}
