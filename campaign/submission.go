package campaign

import (
	"errors"
	"sync"
	"time"

	"github.com/anyproto/ar-campaign-server/domain"
)

// Submission is the input of a campaign creation; a missing file is nil
type Submission struct {
	Marker *domain.Candidate
	Video  *domain.Candidate
}

// submission holds the state of the latest submission of a session, it lives in the ocache
type submission struct {
	mu    sync.Mutex
	state SubmissionState
}

func newSubmission(sessionId string) *submission {
	return &submission{state: SubmissionState{SessionId: sessionId, Stage: StageIdle}}
}

// begin starts a new submission, dropping the result of the previous one
func (s *submission) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Stage.InProgress() {
		return ErrSubmissionInProgress
	}
	s.state = SubmissionState{SessionId: s.state.SessionId, Stage: StageIdle}
	return s.state.setStage(StageValidating)
}

func (s *submission) setStage(to Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.setStage(to)
}

func (s *submission) startUpload(campaignId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CampaignId = campaignId
	return s.state.setStage(StageUploading)
}

func (s *submission) progressFunc(kind domain.AssetKind) func(int) {
	return func(percent int) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.state.setProgress(kind, percent)
	}
}

func (s *submission) complete(res Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.setStage(StageComplete); err != nil {
		return err
	}
	campaign := res.Campaign
	s.state.Campaign = &campaign
	s.state.QrCode = res.QrCode
	return nil
}

func (s *submission) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Stage.InProgress() {
		return
	}
	_ = s.state.setStage(StageFailed)
	s.state.Error = Summary(err)
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		s.state.FieldErrors = vErr.Fields
	}
}

func (s *submission) snapshot() SubmissionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.copy()
}

func (s *submission) TryClose(objectTTL time.Duration) (res bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.state.Stage.InProgress(), nil
}

func (s *submission) Close() (err error) {
	return nil
}
