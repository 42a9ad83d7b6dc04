// Package decay generates the particles emitted by one radioactive decay.
//
// A Decay holds a parent state and the level scheme of the daughter nucleus,
// usually read from an ENSDF decay dataset. Execute walks the scheme once:
// it picks the beta or isomeric branch of the parent, the fed daughter level,
// the beta energy from a tabulated Fermi spectrum, and then follows the gamma
// cascade down to the ground state. Each gamma transition may be internally
// converted, in which case the atomic vacancy it leaves relaxes through a
// fixed four-shell (K, L, M, outer) X-ray and Auger cascade.
//
// Energies are MeV and times are ns. A Decay is read-only after
// construction, so Execute may be called from several goroutines as long as
// each uses its own *rand.Rand.
package decay
