package engine

import "time"

// Profile is a concurrency profile for one scan: how many files are
// parsed at once, how often the scan yields, and for how long. Profile
// selection is a policy decision made by the caller.
type Profile struct {
	// Workers caps simultaneous in-flight parses per batch.
	Workers int
	// SliceSize is the processed-item count between cooperative yields.
	// The counter spans batches.
	SliceSize int
	// InterSliceYield is how long the scan sleeps at each yield point.
	// Zero disables yielding entirely (headless and test configs).
	InterSliceYield time.Duration
}

// ProfileInteractive suits a foregrounded, power-connected session.
var ProfileInteractive = Profile{Workers: 8, SliceSize: 200, InterSliceYield: time.Millisecond}

// ProfileLightBackground avoids starving other work when idle or on
// battery: one worker, longer yields.
var ProfileLightBackground = Profile{Workers: 1, SliceSize: 50, InterSliceYield: 25 * time.Millisecond}

// normalized returns the profile with unset fields replaced by safe
// minimums.
func (p Profile) normalized() Profile {
	if p.Workers < 1 {
		p.Workers = 1
	}
	if p.SliceSize < 1 {
		p.SliceSize = 1
	}
	return p
}
