// Copyright 2021-2024 EMQ Technologies Co., Ltd.
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

package cast

import "time"

var localTimeZone = time.Local

// TimeToUnixMilli converts a time.Time into Unix epoch milliseconds, the
// wire representation used for barrier trigger timestamps.
func TimeToUnixMilli(t time.Time) int64 {
	return t.UnixNano() / 1e6
}

// TimeFromUnixMilli is the inverse of TimeToUnixMilli.
func TimeFromUnixMilli(t int64) time.Time {
	return time.Unix(t/1000, (t%1000)*1e6).In(localTimeZone)
}
