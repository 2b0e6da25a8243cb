/*
Copyright 2020 Google LLC

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
package cmd

import (
	"fmt"
	"time"
)

// Date strings look like 'yyyy', 'yyyy-mm', or 'yyyy-mm-dd'.
var dateLayouts = []string{"2006", "2006-01", "2006-01-02"}

// parseDate returns the start of the year, month or day named by ds. An
// empty string is the zero time.
func parseDate(ds string) (time.Time, error) {
	if ds == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if len(ds) != len(layout) {
			continue
		}
		if t, err := time.Parse(layout, ds); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("Invalid format: %q", ds)
}
