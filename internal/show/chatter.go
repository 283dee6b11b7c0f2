package show

import (
	"fmt"
	"time"
)

// countdownThresholds are the remaining-seconds marks that each get one
// announcement per session.
var countdownThresholds = []int{30, 10, 5, 0}

const chatterCooldown = 8 * time.Second

// Chatter fills the waiting room while submissions are open: countdown
// announcements at fixed thresholds, at most one line playing at a time,
// with a cooldown after each. It never touches round state.
type Chatter struct {
	fired     map[int]bool
	busyUntil time.Time
	now       func() time.Time
}

func NewChatter() *Chatter {
	return &Chatter{
		fired: make(map[int]bool),
		now:   time.Now,
	}
}

// Reset clears the one-shot marks for a new session.
func (c *Chatter) Reset() {
	c.fired = make(map[int]bool)
	c.busyUntil = time.Time{}
}

// Next returns the line to speak for the given remaining submission time, or
// ("", -1) if nothing is due. Each threshold fires at most once.
func (c *Chatter) Next(remaining time.Duration) (string, int) {
	now := c.now()
	if now.Before(c.busyUntil) {
		return "", -1
	}

	secs := int(remaining.Seconds())
	for _, threshold := range countdownThresholds {
		if c.fired[threshold] || secs > threshold {
			continue
		}
		c.fired[threshold] = true
		c.busyUntil = now.Add(chatterCooldown)
		return countdownLine(threshold), threshold
	}
	return "", -1
}

func countdownLine(threshold int) string {
	switch threshold {
	case 0:
		return "Aaand that's time! Lock it up, the roast is about to begin."
	case 5:
		return "Five seconds! Type faster!"
	case 10:
		return "Ten seconds left to ruin someone's evening."
	default:
		return fmt.Sprintf("%d seconds left to get your roasts in.", threshold)
	}
}
