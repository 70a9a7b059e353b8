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

package eval

import (
	"fmt"
	"sync"

	"github.com/bayeslog/blog/model"
)

// Listener is told about each variable an instantiating context samples.
type Listener interface {
	AfterSampling(v *model.Var, value model.Value, logProb float64)
}

// ListenerFunc adapts a plain function into a Listener.
type ListenerFunc func(v *model.Var, value model.Value, logProb float64)

// AfterSampling calls the function.
func (fn ListenerFunc) AfterSampling(v *model.Var, value model.Value, logProb float64) {
	fn(v, value, logProb)
}

// Registry is a set of listeners shared by every context it is handed to. It
// is built and closed explicitly by whoever owns the run.
type Registry struct {
	mutex     *sync.Mutex
	listeners map[int]Listener
	order     []int
	next      int
	closed    bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		mutex:     &sync.Mutex{},
		listeners: make(map[int]Listener),
	}
}

// Register adds a listener. The returned function removes it again.
func (obj *Registry) Register(l Listener) (func(), error) {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	if obj.closed {
		return nil, fmt.Errorf("registry is closed")
	}
	id := obj.next
	obj.next++
	obj.listeners[id] = l
	obj.order = append(obj.order, id)
	return func() {
		obj.mutex.Lock()
		defer obj.mutex.Unlock()
		delete(obj.listeners, id)
	}, nil
}

// Notify tells every listener, in registration order.
func (obj *Registry) Notify(v *model.Var, value model.Value, logProb float64) {
	obj.mutex.Lock()
	listeners := []Listener{}
	for _, id := range obj.order {
		if l, exists := obj.listeners[id]; exists {
			listeners = append(listeners, l)
		}
	}
	obj.mutex.Unlock()
	for _, l := range listeners { // don't hold the lock while calling out
		l.AfterSampling(v, value, logProb)
	}
}

// Close removes every listener. Later registrations fail.
func (obj *Registry) Close() {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	obj.closed = true
	obj.listeners = make(map[int]Listener)
	obj.order = nil
}
