package service

/*
 Copyright 2019 - 2025 Crunchy Data Solutions, Inc.
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at
      http://www.apache.org/licenses/LICENSE-2.0
 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// appError carries an HTTP status and a user-facing message alongside the
// underlying error, so handlers can return a single value that is either
// "no error" (nil) or everything needed to write the error response.
type appError struct {
	Error   error
	Message string
	Code    int
}

// appHandler lets handlers return *appError instead of writing error
// responses inline; ServeHTTP turns a non-nil appError into a JSON error
// response and logs the underlying cause.
type appHandler func(w http.ResponseWriter, r *http.Request) *appError

func (fn appHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if e := fn(w, r); e != nil {
		if e.Error != nil {
			log.Errorf("%s: %v", e.Message, e.Error)
		} else {
			log.Warnf("%s", e.Message)
		}
		w.Header().Set("Content-Type", ContentTypeJSON)
		w.WriteHeader(e.Code)
		json.NewEncoder(w).Encode(map[string]string{"error": e.Message})
	}
}

func appErrorBadRequest(err error, message string) *appError {
	return &appError{Error: err, Message: message, Code: http.StatusBadRequest}
}

func appErrorNotFound(err error, message string) *appError {
	return &appError{Error: err, Message: message, Code: http.StatusNotFound}
}

func appErrorUnauthorized(err error, message string) *appError {
	return &appError{Error: err, Message: message, Code: http.StatusUnauthorized}
}

func appErrorForbidden(err error, message string) *appError {
	return &appError{Error: err, Message: message, Code: http.StatusForbidden}
}

func appErrorInternal(err error, message string) *appError {
	return &appError{Error: err, Message: message, Code: http.StatusInternalServerError}
}

// writeJSON writes v as a JSON response body with the given content type
// and a 200 status, returning nil on success or an *appError on encode
// failure.
func writeJSON(w http.ResponseWriter, contentType string, v interface{}) *appError {
	w.Header().Set("Content-Type", contentType)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return appErrorInternal(err, "Error encoding JSON response")
	}
	return nil
}
