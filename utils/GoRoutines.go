// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package utils

import (
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// noPanicFunc
// turns panic into an error
type noPanicFunc func()

// run
// runs and recovers function
func (f noPanicFunc) run() {
	defer internalRecover()
	f()
}

// suppress panics within goroutine
func SafeAsync(function noPanicFunc) {
	go function.run()
}

// suppress panics
func SafeRun(function noPanicFunc) {
	function.run()
}

// SafeRunErr
// runs the function and reports a panic as an error
func SafeRunErr(function func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Tracef("Stacktrace: %v", string(debug.Stack()))
			err = fmt.Errorf("recovered from panic: %v", r)
		}
	}()
	return function()
}

// internalRecover
// panic recovery
func internalRecover() {
	if err := recover(); err != nil {
		log.Errorf("Request failed with panic: %v", err)
		log.Tracef("Stacktrace: %v", string(debug.Stack()))
		return
	}
}

// MakeUniqueId
// returns a random identifier for runs and cache names
func MakeUniqueId() string {
	return uuid.New().String()
}
