/*
 * conversion.go, part of gocp2k.
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

package cp2k

//This provides the conversion factors between the units CP2K emits
//and the eV/Å system everything downstream expects.

//Conversions
const (
	H2EV      = 27.211386245988       //Hartree to eV
	EV2H      = 1 / 27.211386245988   //eV to Hartree
	HBohr2EVA = 51.42206747632590000  //Hartree/Bohr to eV/Å
	A2Bohr    = 1.889725989
	Bohr2A    = 1 / 1.889725989

	//Stress. CP2K prints bar. The negative sign maps the compressive
	//convention of the .stress file onto the tensor sign used in the
	//extended-XYZ output. Callers wanting the opposite convention pass
	//-Bar2EVA3 to the stress reader.
	Bar2EVA3 = -6.2415e-7

	//Virial. stress (eV/Å³) times cell volume (Å³) times this constant
	//gives the virial in eV. Derived from Avogadro's number and the
	//elementary charge.
	Virial2EV = 1e4 / (6.24 * 1602.17)
)
