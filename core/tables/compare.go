/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Taxinomia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package tables

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// CompareValues orders two cell values.
// Returns -1 if a < b, 0 if equal, 1 if a > b. Nil values sort after everything else.
func CompareValues(a, b any) int {
	if a == nil || b == nil {
		return compareNils(a == nil, b == nil)
	}

	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return compareFloat64s(fa, fb)
		}
	}

	switch va := a.(type) {
	case string:
		if vb, ok := b.(string); ok {
			return strings.Compare(strings.ToLower(va), strings.ToLower(vb))
		}
	case bool:
		if vb, ok := b.(bool); ok {
			return compareBools(va, vb)
		}
	case time.Time:
		if vb, ok := b.(time.Time); ok {
			return compareTimes(va, vb)
		}
	case time.Duration:
		if vb, ok := b.(time.Duration); ok {
			return compareDurations(va, vb)
		}
	}

	// Mixed or unknown types: compare their string form
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// toFloat widens any numeric type except time.Duration.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func compareNils(aNil, bNil bool) int {
	if aNil && bNil {
		return 0
	}
	if aNil {
		return 1
	}
	return -1
}

// compareTimes compares two time.Time values
func compareTimes(a, b time.Time) int {
	if a.Before(b) {
		return -1
	}
	if a.After(b) {
		return 1
	}
	return 0
}

// compareDurations compares two time.Duration values
func compareDurations(a, b time.Duration) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// compareBools compares two bool values (false < true)
func compareBools(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}

// compareFloat64s compares two float64 values with NaN handling.
// NaN values are considered greater than all other values (sort to end).
func compareFloat64s(a, b float64) int {
	aNaN := math.IsNaN(a)
	bNaN := math.IsNaN(b)

	if aNaN && bNaN {
		return 0
	}
	if aNaN {
		return 1
	}
	if bNaN {
		return -1
	}

	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
