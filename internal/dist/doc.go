// Package dist implements the one-dimensional energy samplers used by the
// particle source.
//
// A Tabulated distribution holds an arbitrary probability density given as
// (x, y) pairs and samples it by inverting its cumulative distribution. The
// cumulative distribution is built lazily on the first Sample call after a
// mutation, using the selected interpolation between neighbouring points:
//
//   - Linear: y is linear in x
//   - Logarithmic: log y is linear in log x (power law)
//   - Exponential: log y is linear in x
//   - Spline: natural cubic spline through the points
//
// Mono and Lines cover mono-energetic sources and discrete gamma lines with
// relative intensities. Cf252 tabulates the Mannhart evaluation of the
// spontaneous-fission neutron spectrum of 252Cf.
//
// None of the samplers lock. The particle source serialises every Sample
// call behind its own mutex.
package dist
