// Copyright (C) 2024  wwhai
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License along
// with this program; if not, see <https://www.gnu.org/licenses/>.

package ilc

// ChangeRecorder holds the per-(address, function) fingerprint cache used
// to suppress duplicate event-like telemetry. Telemetry-like decoders
// (forces, pressures, positions) simply never call into it and always
// emit.
type ChangeRecorder struct {
	cache         map[Pair][]byte
	alwaysTrigger bool
}

// NewChangeRecorder returns a ChangeRecorder with an empty cache.
func NewChangeRecorder() *ChangeRecorder {
	return &ChangeRecorder{cache: make(map[Pair][]byte)}
}

// SetAlwaysTrigger forces ResponseMatchCached to always report "changed",
// overriding the cache comparison - for callers that want every decode to
// surface its callback regardless of content.
func (r *ChangeRecorder) SetAlwaysTrigger(always bool) {
	r.alwaysTrigger = always
}

// ResponseMatchCached closes out b's in-progress change record, compares
// it against the cached fingerprint for (address, function), stores the
// fresh fingerprint as the new cache entry, and reports whether the bytes
// matched the cache (i.e. no change). A decoder should emit its event
// callback only when this returns false.
func (r *ChangeRecorder) ResponseMatchCached(b *Buffer, address, function uint8) bool {
	key := Pair{Address: address, Function: function}
	matched, recorded := b.CheckRecording(r.cache[key])
	r.cache[key] = recorded
	if r.alwaysTrigger {
		return false
	}
	return matched
}

// Forget drops the cached fingerprint for (address, function), so the next
// decode is unconditionally treated as a change.
func (r *ChangeRecorder) Forget(address, function uint8) {
	delete(r.cache, Pair{Address: address, Function: function})
}

// Clear drops every cached fingerprint.
func (r *ChangeRecorder) Clear() {
	r.cache = make(map[Pair][]byte)
}
