package show

import (
	"time"

	"github.com/roastlab/roast-arena/internal/collab"
	"github.com/roastlab/roast-arena/internal/domain"
)

// staleAudioThreshold is how far past its start a clip may be before a
// follower skips it instead of playing it badly out of position.
const staleAudioThreshold = 30 * time.Second

// FollowerView is everything a viewer needs to render the current moment,
// derived purely from the latest snapshot plus the wall clock. Followers
// make no decisions about what plays next.
type FollowerView struct {
	ItemIndex  int                  `json:"itemIndex"`
	Phase      domain.PlaybackPhase `json:"phase"`
	Speaker    string               `json:"speaker"`
	Caption    string               `json:"caption"`
	RoastCount int                  `json:"roastCount"`
	AudioURL   string               `json:"audioUrl,omitempty"`
	SeekOffset time.Duration        `json:"seekOffsetMs"`
	PlayAudio  bool                 `json:"playAudio"`
}

// Reconstruct builds the view for a follower observing the snapshot at now.
// If audio started k ago and k is inside the clip, the follower starts
// playback seeked to k, which is what lets a late or reconnecting client
// join mid-segment in sync. A clip whose start is past the staleness
// threshold is skipped; captions still render.
func Reconstruct(snap *domain.PlaybackSnapshot, now time.Time) FollowerView {
	view := FollowerView{
		ItemIndex:  snap.ItemIndex,
		Phase:      snap.Phase,
		Speaker:    snap.Speaker,
		Caption:    snap.Caption,
		RoastCount: snap.RoastCount,
	}

	if !snap.Playing || snap.AudioURL == "" || snap.AudioStartedAt == nil {
		return view
	}

	elapsed := now.Sub(*snap.AudioStartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > staleAudioThreshold {
		return view
	}
	if elapsed >= collab.EstimateSpeechDuration(snap.Caption) {
		return view
	}

	view.AudioURL = snap.AudioURL
	view.SeekOffset = elapsed
	view.PlayAudio = true
	return view
}
