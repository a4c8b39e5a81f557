package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"ARS/raycast"
	"ARS/world"
)

// newSimulation builds the world described by the command-line flags.
func newSimulation(caster raycast.FanCaster) (*world.Simulation, error) {
	cfg := world.DefaultConfig()
	cfg.Width, cfg.Height = *gridWidthFlag, *gridHeightFlag
	cfg.BranchingFactor = *branchingFlag
	cfg.MaxSteps = *stepsFlag
	cfg.MaxDistance = *maxDistanceFlag

	var grid *raycast.Grid
	if *mapFlag != "" {
		g, err := world.LoadMap(*mapFlag)
		if err != nil {
			return nil, err
		}
		grid = g
	} else {
		g, err := raycast.NewGrid(cfg.Width, cfg.Height)
		if err != nil {
			return nil, err
		}
		grid = g
	}

	if *randomWallsFlag > 0 {
		seed := *seedFlag
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		placed := world.GenerateWalls(grid, rand.New(rand.NewSource(seed)), world.WallOptions{
			Segments:          *randomWallsFlag,
			MinLen:            wallMinLen,
			MaxLen:            wallMaxLen,
			ThicknessVariance: wallThicknessVariance,
			ExclusionRadius:   wallExclusionRadius,
		}, cfg.Listener)
		log.Printf("Generated %d wall cells (seed %d)", placed, seed)
	}

	sim, err := world.New(cfg, grid, caster)
	if err != nil {
		return nil, fmt.Errorf("building world: %w", err)
	}
	return sim, nil
}

// newCaster picks the fan caster requested on the command line. The returned
// cleanup releases GPU resources.
func newCaster() (raycast.FanCaster, func(), error) {
	if *openCLFlag {
		c, err := raycast.NewOpenCLCaster()
		if err != nil {
			return nil, nil, fmt.Errorf("OpenCL initialization failed: %w", err)
		}
		log.Printf("OpenCL caster enabled (device: %s)", c.DeviceName())
		return c, c.Close, nil
	}
	if *parallelFlag {
		return raycast.NewParallelCaster(), func() {}, nil
	}
	return raycast.SequentialCaster{}, func() {}, nil
}
