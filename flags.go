package main

import "flag"

// Command-line flags for the window front-end. World defaults match
// world.DefaultConfig.
var (
	// mapFlag loads the grid from a text map where '#' marks an occupied cell.
	mapFlag = flag.String("map", "", "load the grid from a text map file ('#' = occupied)")

	// gridWidthFlag and gridHeightFlag size the empty grid when no map is given.
	gridWidthFlag  = flag.Int("width", 10, "grid width in cells when no -map is given")
	gridHeightFlag = flag.Int("height", 10, "grid height in cells when no -map is given")

	// randomWallsFlag scatters wall segments over the grid at startup.
	randomWallsFlag = flag.Int("random-walls", 0, "number of random wall segments to generate (0 = empty room)")

	// seedFlag seeds wall generation; 0 picks a time based seed.
	seedFlag = flag.Int64("seed", 0, "random seed for -random-walls (0 = time based)")

	branchingFlag   = flag.Int("branching", 12, "rays cast from every tree node")
	stepsFlag       = flag.Int("steps", 2, "maximum reflection depth")
	maxDistanceFlag = flag.Float64("max-distance", 50, "maximum path length in cells")

	// sampleFlag is the WAV file played by every source. A synthetic burst is
	// used when empty.
	sampleFlag = flag.String("sample", "", "WAV file played by the sources")

	// muteFlag disables audio output entirely.
	muteFlag = flag.Bool("mute", false, "disable audio output")

	// parallelFlag casts each ray fan on a worker pool.
	parallelFlag = flag.Bool("parallel", true, "cast ray fans on all CPUs")

	// openCLFlag casts ray fans on an OpenCL device (needs -tags opencl).
	openCLFlag = flag.Bool("opencl", false, "cast ray fans with OpenCL (build with -tags opencl)")

	// debugFlag enables the FPS and ray tree overlay.
	debugFlag = flag.Bool("debug", false, "show FPS and ray tree overlay")

	// cpuProfileFlag writes a CPU profile for the whole run.
	cpuProfileFlag = flag.String("cpuprofile", "", "write a CPU profile to this file")

	// memProfileFlag writes a heap profile on exit.
	memProfileFlag = flag.String("memprofile", "", "write a heap profile to this file on exit")
)
