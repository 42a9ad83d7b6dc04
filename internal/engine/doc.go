// Package engine implements the particle-source engine: the per-event entry
// point that turns a configured set of elementary sources into primary
// vertices for the transport simulation.
//
// ARCHITECTURE:
//
// Configuration, then generation:
// An Engine is configured single-threaded (presets, spectra, beamspot,
// direction, reaction and decay files) and then handed to any number of
// worker goroutines that call GeneratePrimaries concurrently.
//
// Serialized generation:
// GeneratePrimaries holds the engine mutex for the whole vertex construction
// and the push into the EventSink. Sampling shares one *rand.Rand and the
// reaction's working beam energy is mutated per event, so generation is
// strictly serialized. This trades throughput for reproducibility: a fixed
// seed and a single worker always produce the same vertices.
//
// Event flow:
//  1. Clock.Next() stamps the event ID
//  2. With a decay scheme loaded, one decay is executed and every emitted
//     particle becomes a vertex
//  3. Otherwise every elementary source emits one particle: energy from its
//     sampler, position from its beamspot, direction from the isotropic mode
//  4. Reaction kinematics replace the energy, and a finite target adds a
//     depth offset and flight time
//  5. Back-to-back sources add a second particle in the opposite direction
//  6. The vertices are pushed to the sink in one call
//
// Configuration methods never leave partial state behind: a failed file read
// keeps the previous, working configuration.
package engine
