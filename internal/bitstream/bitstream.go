// Package bitstream serializes one encoded block into the nibble-aligned,
// MSB-first wire format: a window-control byte, then per channel a
// quantizer header, a stream of coefficient/zero-run/quantizer-change
// nibbles, an optional noise-fill payload per zone, and a stop code.
//
// Ported from: the reference's single-pass nibble emitter. Cost and
// WriteChannel share one token-emission routine so the rate controller's
// bit-budget search can never disagree with what the writer actually
// produces (see DESIGN.md).
package bitstream

import (
	"github.com/openulc/ulc/internal/bits"
	"github.com/openulc/ulc/internal/quantizer"
)

// NoiseFill is the optional noise-fill side information attached to a
// quantizer zone.
type NoiseFill struct {
	Enabled     bool
	Quant       uint8 // 0-8, geometric-mean noise amplitude; 0 means disabled
	HFAmplitude uint8 // 0-15
	HFDecay     uint8 // 0-255
}

// ChannelPlan is the fully-decided coding of one channel of one sub-block
// (or, for whole-block serialization, the concatenation across
// sub-blocks): a set of quantizer zones covering every band, the coded
// integer for each band (in {-7,...,7}, 0 for dropped/silent bands), and
// optional per-zone noise fill.
type ChannelPlan struct {
	Zones  []quantizer.Zone
	Values []int
	Noise  []NoiseFill // parallel to Zones; zero value means "no noise fill"
}

// Cost returns the number of nibbles WriteChannel would emit for plan,
// without writing anything.
func Cost(plan ChannelPlan) int {
	n := 0
	emitChannel(nil, &n, plan)
	return n
}

// WriteChannel appends plan's wire representation to w.
func WriteChannel(w *bits.Writer, plan ChannelPlan) {
	n := 0
	emitChannel(w, &n, plan)
}

// WriteWindowControl appends the 8-bit window-control byte: overlap nibble
// then decimation nibble.
func WriteWindowControl(w *bits.Writer, overlapNibble, decimationNibble uint8) {
	w.PutNibbles(overlapNibble&0xF, decimationNibble&0xF)
}

func put(w *bits.Writer, n *int, vs ...uint8) {
	*n += len(vs)
	if w != nil {
		w.PutNibbles(vs...)
	}
}

// lastSignificantIndex returns the index, one past which a channel's
// content is entirely implied by the stop code: the last band carrying a
// nonzero coded value, or (if later) the last band of the last zone
// carrying noise-fill side information. -1 means the whole channel is
// silent and carries no noise fill.
func lastSignificantIndex(plan ChannelPlan) int {
	last := -1
	for i, v := range plan.Values {
		if v != 0 {
			last = i
		}
	}
	for zi, zone := range plan.Zones {
		if zi < len(plan.Noise) && plan.Noise[zi].Enabled && zone.End-1 > last {
			last = zone.End - 1
		}
	}
	return last
}

func emitChannel(w *bits.Writer, n *int, plan ChannelPlan) {
	if len(plan.Zones) == 0 {
		put(w, n, 0xE, 0x1) // header: exponent 0
		put(w, n, 0x8, 0x0) // stop
		return
	}

	// Everything past lastKept is implied by the stop code: no zero-run
	// codes are emitted for a channel's trailing silence, per §8's "header,
	// coefficient, stop" scenario.
	lastKept := lastSignificantIndex(plan)

	put(w, n, 0xE, nibble(plan.Zones[0].Exponent+1))
	curExp := plan.Zones[0].Exponent

	for zi, zone := range plan.Zones {
		if zone.Start > lastKept {
			break
		}
		if zi > 0 && zone.Exponent != curExp {
			put(w, n, 0x8, 0xE, nibble(zone.Exponent+1))
			curExp = zone.Exponent
		}

		end := zone.End
		if lastKept+1 < end {
			end = lastKept + 1
		}
		emitZoneValues(w, n, plan.Values[zone.Start:end])

		if zi < len(plan.Noise) && plan.Noise[zi].Enabled {
			nf := plan.Noise[zi]
			put(w, n, 0x8, 0xF, nibble(int(nf.Quant)), nibble(int(nf.HFAmplitude)))
			hi := nibble(int(nf.HFDecay >> 4))
			lo := nibble(int(nf.HFDecay & 0xF))
			put(w, n, hi, lo)
		}
	}

	put(w, n, 0x8, 0x0) // stop
}

func nibble(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 0xF {
		return 0xF
	}
	return uint8(v)
}

// emitZoneValues walks one zone's coded values, coalescing runs of zeros
// into the short/long run-length control codes.
func emitZoneValues(w *bits.Writer, n *int, values []int) {
	i := 0
	for i < len(values) {
		if values[i] == 0 {
			j := i
			for j < len(values) && values[j] == 0 {
				j++
			}
			emitZeroRun(w, n, j-i)
			i = j
			continue
		}
		v := values[i]
		if v > 0 {
			put(w, n, nibble(v))
		} else {
			put(w, n, nibble(16+v))
		}
		i++
	}
}

// emitZeroRun decomposes a run of length zeros into the fewest control
// codes: long runs first, then a short run (4-24, step 2), then individual
// single-zero nibbles for any remainder (1-3 zeros).
//
// The long-run hi nibble is restricted to {C, D}: the control-code table
// also assigns hi=E to the quantizer-change code and hi=F to the
// noise-fill payload, so a long run claiming the full C..F range would
// collide with both (see DESIGN.md). That caps one long-run code at
// length 26+2*31=88 rather than 152; longer runs simply chain another
// long-run code (or a short run) for the remainder, so the maximum total
// run length a sequence of codes can cover is unaffected.
func emitZeroRun(w *bits.Writer, n *int, length int) {
	const maxLongRunLength = 26 + 2*31
	for length >= 26 {
		chunk := length
		if chunk > maxLongRunLength {
			chunk = maxLongRunLength
		}
		if chunk%2 != 0 {
			chunk--
		}
		v := (chunk - 26) / 2
		hi := 0xC + v/16
		lo := v % 16
		put(w, n, 0x8, nibble(hi), nibble(lo))
		length -= chunk
	}
	if length >= 4 {
		chunk := length
		if chunk > 24 {
			chunk = 24
		}
		if chunk%2 != 0 {
			chunk--
		}
		x := (chunk-4)/2 + 1
		put(w, n, 0x8, nibble(x))
		length -= chunk
	}
	for length > 0 {
		put(w, n, 0x0)
		length--
	}
}

// MaxBlockBits returns the maximum legal bit length of one block per §4.7:
// 8 + C·(12 + 20·(N−1)).
func MaxBlockBits(channels, blockSize int) int {
	return 8 + channels*(12+20*(blockSize-1))
}
