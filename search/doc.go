// Copyright 2025 Poiesic Systems
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


// Package search ranks described items by embedding similarity to a query.
//
// The Ranker embeds the query and every item description through an
// ai.Embedder, scores each item as (cos+1)/2 and keeps items whose score
// strictly exceeds the threshold. Item descriptions are embedded in batches on
// a worker pool and each provider call is bounded by a timeout. Any provider
// failure aborts the whole call; no partial ranking is returned.
//
// A SearchMonitor can observe each stage of a call.
package search
