/*
 * doc.go, part of gocp2k.
 *
 * Copyright 2024 Raul Mera <rmera{at}usachDOTcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

/*Package cp2k merges the per-quantity output files of a CP2K AIMD run
(atomic positions, forces plus total energies, cell vectors and, optionally,
stress tensors) into a single per-frame extended-XYZ trajectory.


	**gocp2k Capabilities**

    Reads CP2K position (*-pos-1.xyz), force (*-frc-1.xyz), cell (*.cell)
	and stress (*.stress) files, each with its own cursor over the stream.

    Aligns the four per-quantity frame sequences into one trajectory,
	truncating to the shortest source and reporting the loss. Inconsistent
	production runs still yield a usable, internally consistent trajectory.

    Converts everything to eV/Å on the way in (energies from Hartree,
	forces from Hartree/Bohr, stresses from bar).

    Optionally re-references the total energy onto a per-species baseline
	obtained from a least-squares fit (SVD pseudoinverse, safe under rank
	deficiency), so the residual energies cluster near zero.

    Writes (and reads back) the merged trajectory as extended XYZ, plain
	or compressed (gzip, zstd or flate, selected by file suffix).

    Derives per-frame virial tensors from stress and cell volume, and
	exports them in the raw column formats used by force-field training
	pipelines.

All heavy linear algebra is done with gonum. The readers never abort on a
malformed line; problems are logged and the line skipped, since AIMD output
files are routinely truncated or interleaved with restart noise.*/
package cp2k
