package main

import "time"

// Window, world and audio constants. World coordinates are cells; one cell is
// drawn as cellPixels screen pixels.
const (
	cellPixels            = 48
	maxWindowPixels       = 960
	defaultTPS            = 60.0
	listenerDotRadius     = 6
	sourceDotRadius       = 5
	rayStrokeWidth        = 1
	minBranchingFactor    = 1
	maxBranchingFactor    = 72
	branchingStep         = 1
	wallMinLen            = 2
	wallMaxLen            = 6
	wallExclusionRadius   = 1
	wallThicknessVariance = 1
	audioSampleRate       = 44100
	audioBufferDuration   = 80 * time.Millisecond
	burstDuration         = 600 * time.Millisecond
	statsLogInterval      = 5 * time.Second
)
