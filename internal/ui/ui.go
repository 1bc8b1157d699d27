package ui

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
	"html/template"
	"path/filepath"
	"sync"

	"github.com/vectilehq/vectile/internal/conf"
)

// HTMLDynamicLoad disables template caching when true (set for --test and
// --devel runs), so edits to assets/index.gohtml are picked up without a
// process restart.
var HTMLDynamicLoad = false

var (
	templateCache = make(map[string]*template.Template)
	templateMutex sync.Mutex
)

// LoadTemplate parses and returns the named template from the configured
// assets directory, caching the parsed result unless HTMLDynamicLoad is set.
func LoadTemplate(name string) (*template.Template, error) {
	if !HTMLDynamicLoad {
		templateMutex.Lock()
		if t, ok := templateCache[name]; ok {
			templateMutex.Unlock()
			return t, nil
		}
		templateMutex.Unlock()
	}

	path := filepath.Join(conf.Configuration.Server.AssetsPath, name)
	t, err := template.ParseFiles(path)
	if err != nil {
		return nil, err
	}

	if !HTMLDynamicLoad {
		templateMutex.Lock()
		templateCache[name] = t
		templateMutex.Unlock()
	}

	return t, nil
}
