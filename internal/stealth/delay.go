package stealth

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// DelayProfile names a jitter range applied before each outbound request.
type DelayProfile string

const (
	ProfileOff        DelayProfile = "off"
	ProfileCautious   DelayProfile = "cautious"
	ProfileNormal     DelayProfile = "normal"
	ProfileAggressive DelayProfile = "aggressive"
)

// ParseDelayProfile accepts a profile name case-insensitively.
func ParseDelayProfile(s string) (DelayProfile, error) {
	switch p := DelayProfile(strings.ToLower(strings.TrimSpace(s))); p {
	case ProfileOff, ProfileCautious, ProfileNormal, ProfileAggressive:
		return p, nil
	case "":
		return ProfileNormal, nil
	default:
		return "", fmt.Errorf("unknown delay profile %q", s)
	}
}

// HumanDelay adds randomized jitter to mimic human browsing patterns.
type HumanDelay struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

// NewHumanDelay creates a delay generator for the given profile. The off
// profile yields nil, which Transport skips.
func NewHumanDelay(profile DelayProfile) *HumanDelay {
	switch profile {
	case ProfileOff:
		return nil
	case ProfileCautious:
		return &HumanDelay{MinDelay: 2 * time.Second, MaxDelay: 5 * time.Second}
	case ProfileAggressive:
		return &HumanDelay{MinDelay: 200 * time.Millisecond, MaxDelay: 800 * time.Millisecond}
	default:
		return &HumanDelay{MinDelay: 500 * time.Millisecond, MaxDelay: 2 * time.Second}
	}
}

// Wait sleeps for a random duration within the configured range.
func (h *HumanDelay) Wait(ctx context.Context) error {
	t := time.NewTimer(h.Next())
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next returns a random delay in [MinDelay, MaxDelay).
func (h *HumanDelay) Next() time.Duration {
	if h.MinDelay >= h.MaxDelay {
		return h.MinDelay
	}
	return h.MinDelay + time.Duration(rand.Int64N(int64(h.MaxDelay-h.MinDelay)))
}
