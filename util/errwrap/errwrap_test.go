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

package errwrap

import (
	"fmt"
	"strings"
	"testing"
)

type cycleErr struct{ depth int }

func (obj *cycleErr) Error() string { return fmt.Sprintf("cycle at depth %d", obj.depth) }

func TestWrapfNil(t *testing.T) {
	if err := Wrapf(nil, "whatever: %d", 42); err != nil {
		t.Errorf("expected nil result")
	}
}

func TestWrapfCause(t *testing.T) {
	inner := &cycleErr{depth: 3}
	err := Wrapf(Wrapf(inner, "could not sample %s", "A"), "proposal failed")
	if !strings.HasPrefix(err.Error(), "proposal failed: could not sample A") {
		t.Errorf("unexpected message: %s", err.Error())
	}
	cause, ok := Cause(err).(*cycleErr)
	if !ok {
		t.Errorf("expected the typed cause, got: %T", Cause(err))
		return
	}
	if cause.depth != 3 {
		t.Errorf("expected depth 3, got: %d", cause.depth)
	}
}

func TestAppendNil(t *testing.T) {
	if err := Append(nil, nil); err != nil {
		t.Errorf("expected nil result")
	}
}

func TestAppendOneSide(t *testing.T) {
	reterr := fmt.Errorf("reterr")
	if err := Append(reterr, nil); err != reterr {
		t.Errorf("expected reterr")
	}
	err := fmt.Errorf("err")
	if reterr := Append(nil, err); reterr != err {
		t.Errorf("expected err")
	}
}

func TestErrors(t *testing.T) {
	if l := Errors(nil); len(l) != 0 {
		t.Errorf("expected no errors, got: %d", len(l))
	}
	a := fmt.Errorf("a")
	b := fmt.Errorf("b")
	if l := Errors(a); len(l) != 1 || l[0] != a {
		t.Errorf("expected a single error")
	}
	l := Errors(Append(Append(a, b), fmt.Errorf("c")))
	if len(l) != 3 {
		t.Errorf("expected three errors, got: %d", len(l))
	}
}

func TestString(t *testing.T) {
	var err error
	if String(err) != "" {
		t.Errorf("expected empty result")
	}

	msg := "this is an error"
	if err := fmt.Errorf("%s", msg); String(err) != msg {
		t.Errorf("expected different result")
	}
}
