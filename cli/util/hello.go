// Blog
// Copyright (C) 2013-2024+ James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.


package util

import (
	"fmt"
	"log"
	"os"
	"time"
)

// Banner returns the line a run starts with: the program, its version and
// what it does.
func Banner(data *Data) string {
	program := SafeProgram(data.Program)
	if program == "" {
		program = "<unknown>"
	}
	version := data.Version
	if version == "" {
		version = "devel"
	}
	if data.Tagline == "" {
		return fmt.Sprintf("%s %s", program, version)
	}
	return fmt.Sprintf("%s %s: %s", program, version, data.Tagline)
}

// Hello sets up the logger for a run of subcommand, prints the banner and
// logs the start time.
func Hello(data *Data, subcommand string) {
	logFlags := log.Ltime | log.Lmicroseconds
	if data.Flags.Debug {
		logFlags |= log.Lshortfile
	}
	log.SetFlags(logFlags)
	log.SetOutput(os.Stderr)

	fmt.Println(Banner(data))
	if subcommand == "" {
		subcommand = "<none>"
	}
	log.Printf("main: %s: start: %s", subcommand, time.Now().Format(time.RFC3339))
}
