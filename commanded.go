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

// Pair is an (address, function) pairing pushed onto the commanded queue by
// every non-broadcast call and popped when a matching reply is decoded.
type Pair struct {
	Address  uint8
	Function uint8
}

// isBroadcastAddress reports whether address is one of the four ILC
// broadcast addresses, which never enter the commanded queue. Address 255
// is a unicast address despite being the top of the byte range.
func isBroadcastAddress(address uint8) bool {
	switch address {
	case 0, 148, 149, 250:
		return true
	default:
		return false
	}
}

// CommandedQueue is the ordered pairing structure that converts a silent bus
// desynchronization (lost, extra, or reordered reply) into a loud error at
// the first mispair. It preserves call order: pairs must pop in the order
// they were pushed.
type CommandedQueue struct {
	pairs []Pair
}

// Push enqueues (address, function) unless address is a broadcast address,
// matching pushCommanded's skip-broadcast rule.
func (q *CommandedQueue) Push(address, function uint8) {
	if isBroadcastAddress(address) {
		return
	}
	q.pairs = append(q.pairs, Pair{Address: address, Function: function})
}

// Check pops the head of the queue and verifies it matches (address,
// function). A mismatch, or an empty queue, produces UnmatchedFunctionError.
func (q *CommandedQueue) Check(address, function uint8) error {
	if len(q.pairs) == 0 {
		return &UnmatchedFunctionError{Address: address, Function: function}
	}
	head := q.pairs[0]
	q.pairs = q.pairs[1:]
	if head.Address != address || head.Function != function {
		return &UnmatchedFunctionError{
			Address:          address,
			Function:         function,
			HasExpected:      true,
			ExpectedAddress:  head.Address,
			ExpectedFunction: head.Function,
		}
	}
	return nil
}

// Empty reports whether every pushed pair has been matched.
func (q *CommandedQueue) Empty() bool {
	return len(q.pairs) == 0
}

// Pending returns the still-outstanding pairs in push order, for
// CommandedNonEmptyError's listing.
func (q *CommandedQueue) Pending() []Pair {
	out := make([]Pair, len(q.pairs))
	copy(out, q.pairs)
	return out
}

// Clear discards every outstanding pair.
func (q *CommandedQueue) Clear() {
	q.pairs = nil
}
