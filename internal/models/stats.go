// Package models contains the persisted statistics entities.
package models

import (
	"errors"
	"regexp"
	"slices"
	"strings"
	"time"
)

// ErrInvalidProfile is returned for a profile label that does not have the
// len=N;FLAGS shape produced by options.Profile.Key.
var ErrInvalidProfile = errors.New("invalid profile label")

var profileLabel = regexp.MustCompile(`^len=[0-9]{1,2};[U-][L-][D-][S-]$`)

// ProfileStat is the number of passwords generated with one profile.
type ProfileStat struct {
	Profile   string    `json:"profile"`
	Count     int64     `json:"count"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// ValidateProfile checks a profile label before it is stored.
func ValidateProfile(label string) error {
	if !profileLabel.MatchString(label) || strings.HasSuffix(label, "----") {
		return ErrInvalidProfile
	}
	return nil
}

// SortByCount orders stats by count descending, then by label.
func SortByCount(stats []ProfileStat) {
	slices.SortFunc(stats, func(a, b ProfileStat) int {
		if a.Count != b.Count {
			if a.Count > b.Count {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Profile, b.Profile)
	})
}
