package ulc

import (
	"math"

	"github.com/openulc/ulc/internal/bits"
	"github.com/openulc/ulc/internal/bitstream"
	"github.com/openulc/ulc/internal/mdct"
	"github.com/openulc/ulc/internal/noise"
	"github.com/openulc/ulc/internal/psycho"
	"github.com/openulc/ulc/internal/quantizer"
	"github.com/openulc/ulc/internal/ratectrl"
	"github.com/openulc/ulc/internal/transient"
)

const (
	minBlockSize = 256
	maxBlockSize = 8192
	minChannels  = 1
	maxChannels  = 255
	minSampleHz  = 8000
	maxSampleHz  = 96000
)

// arena is the single owning container for every buffer the encoder reuses
// across blocks: the reference lays six typed buffers over one raw
// allocation with hand-computed offsets, a pattern this port replaces with
// one Go struct of typed slices allocated once at Init (see DESIGN.md).
type arena struct {
	lastBlock [][]float32 // per channel, blockSize samples carried for transient analysis
	writer    *bits.Writer
	windowed  []float32 // 2*blockSize scratch for the widest sub-block
	mdctOut   []float32 // blockSize scratch, reused per channel
	mdstOut   []float32
	power     []float32 // blockSize scratch for pseudo-DFT power, reused per sub-block
}

// State owns one encoder stream's configuration and all inter-block carry
// state: the last-block sample buffers, the transient detector's smoothing
// taps, and the per-channel decaying analysis-power bias.
type State struct {
	cfg         Config
	initialized bool

	transientCtrl transient.Controller
	kernels       map[int]*mdct.Kernel
	analysisPower []float64

	a arena
}

// NewState returns a zero-value, uninitialized encoder state.
func NewState() *State {
	return &State{}
}

// Init allocates the arena and prepares State for encoding. block_size must
// be a power of two in [256, 8192]; n_chan in [1, 255]; rate_hz in
// [8000, 96000]. No partial state is left allocated on a configuration
// error.
func (s *State) Init(rateHz, nChan, blockSize int, flags Flags) error {
	if rateHz < minSampleHz || rateHz > maxSampleHz {
		return ErrInvalidSampleRate
	}
	if nChan < minChannels || nChan > maxChannels {
		return ErrInvalidChannelCount
	}
	if blockSize < minBlockSize || blockSize > maxBlockSize || blockSize&(blockSize-1) != 0 {
		return ErrInvalidBlockSize
	}

	s.cfg = Config{SampleRate: rateHz, Channels: nChan, BlockSize: blockSize, Flags: flags}
	s.transientCtrl.Reset()
	s.analysisPower = make([]float64, nChan)

	s.kernels = make(map[int]*mdct.Kernel, 4)
	for sz := blockSize; sz >= blockSize/8 && sz >= 32; sz /= 2 {
		s.kernels[sz] = mdct.NewKernel(sz)
	}

	s.a = arena{
		lastBlock: make([][]float32, nChan),
		writer:    bits.NewWriter(),
		windowed:  make([]float32, 2*blockSize),
		mdctOut:   make([]float32, blockSize),
		mdstOut:   make([]float32, blockSize),
		power:     make([]float32, blockSize),
	}
	for ch := range s.a.lastBlock {
		s.a.lastBlock[ch] = make([]float32, blockSize)
	}

	s.initialized = true
	return nil
}

// Destroy releases the arena. It is idempotent on a zeroed or
// already-destroyed state.
func (s *State) Destroy() {
	s.a = arena{}
	s.kernels = nil
	s.analysisPower = nil
	s.initialized = false
}

// MaxBlockBytes returns the number of bytes a caller must size dst to in
// order to never overflow a call to EncodeBlockCBR or EncodeBlockVBR.
func MaxBlockBytes(channels, blockSize int) int {
	bits := bitstream.MaxBlockBits(channels, blockSize)
	return (bits + 7) / 8
}

// EncodeBlockCBR encodes one block at the requested average bit rate,
// returning the number of bits written (≤ 8*len(dst)). src is
// channel-planar: channel 0's blockSize samples, then channel 1's, etc.
func (s *State) EncodeBlockCBR(dst []byte, src []float32, kbps float64) (int, error) {
	if !s.initialized {
		return 0, ErrNotInitialized
	}
	if len(dst) < MaxBlockBytes(s.cfg.Channels, s.cfg.BlockSize) {
		return 0, ErrDestinationTooSmall
	}
	budgetBits := int(kbps * 1000 * float64(s.cfg.BlockSize) / float64(s.cfg.SampleRate))
	return s.encodeBlock(dst, src, kbps, func(coeffs []ratectrl.Coefficient, plan func(map[int]bool) bitstream.ChannelPlan) map[int]bool {
		return ratectrl.SelectCBR(coeffs, budgetBits/s.cfg.Channels, func(kept map[int]bool) int {
			return 4 * bitstream.Cost(plan(kept)) // Cost counts nibbles
		})
	})
}

// EncodeBlockVBR encodes one block keeping every coefficient whose
// importance exceeds the quality threshold; quality is in (0, 100],
// higher keeps more coefficients.
func (s *State) EncodeBlockVBR(dst []byte, src []float32, quality float64) (int, error) {
	if !s.initialized {
		return 0, ErrNotInitialized
	}
	if len(dst) < MaxBlockBytes(s.cfg.Channels, s.cfg.BlockSize) {
		return 0, ErrDestinationTooSmall
	}
	maxKbps := quantizer.MaxKbps(s.cfg.BlockSize, s.cfg.Channels, s.cfg.SampleRate)
	targetKbps := maxKbps * quality / 100
	return s.encodeBlock(dst, src, targetKbps, func(coeffs []ratectrl.Coefficient, _ func(map[int]bool) bitstream.ChannelPlan) map[int]bool {
		return ratectrl.SelectVBR(coeffs, quality)
	})
}

type selector func(coeffs []ratectrl.Coefficient, plan func(map[int]bool) bitstream.ChannelPlan) map[int]bool

func (s *State) encodeBlock(dst []byte, src []float32, targetKbps float64, sel selector) (int, error) {
	n := s.cfg.BlockSize
	c := s.cfg.Channels

	cur := make([][]float32, c)
	for ch := 0; ch < c; ch++ {
		cur[ch] = src[ch*n : (ch+1)*n]
	}

	word, pattern := s.transientCtrl.Analyze(s.a.lastBlock, cur, s.cfg.SampleRate, n, s.cfg.Flags.WindowSwitching)

	s.a.writer.Reset()
	bitstream.WriteWindowControl(s.a.writer, word.OverlapNibble(), word.DecimationNibble())

	for ch := 0; ch < c; ch++ {
		mdctOut, mdstOut := s.transformChannel(ch, cur[ch], pattern)

		psy := &psycho.Analyzer{Enabled: s.cfg.Flags.Psychoacoustics, NoiseCoding: s.cfg.Flags.NoiseCoding, AnalysisPower: s.analysisPower[ch]}
		masking := make([]float64, n)
		importance := make([]float64, n)
		var noiseAn *noise.Analyzer
		if s.cfg.Flags.NoiseCoding {
			noiseAn = &noise.Analyzer{SampleRate: s.cfg.SampleRate}
		}

		offset := 0
		for _, sz := range pattern.SubBlockSizes {
			amp2 := make([]float32, sz)
			power := s.a.power[:sz]
			var peak float32
			for i := 0; i < sz; i++ {
				amp2[i] = mdctOut[offset+i] * mdctOut[offset+i]
				power[i] = amp2[i] + mdstOut[offset+i]*mdstOut[offset+i]
				if amp2[i] > peak {
					peak = amp2[i]
				}
			}
			if peak == 0 && s.cfg.Logger != nil {
				s.cfg.Logger.Debugf("ulc: zero-energy sub-block (channel %d, offset %d, size %d)", ch, offset, sz)
			}
			res := psy.Analyze(amp2)
			copy(masking[offset:offset+sz], res.Masking)
			copy(importance[offset:offset+sz], res.Importance)
			if noiseAn != nil {
				noiseAn.Analyze(power)
			}
			offset += sz
		}

		coeffs := make([]quantizer.Coefficient, n)
		for i := 0; i < n; i++ {
			a2 := mdctOut[i] * mdctOut[i]
			coeffs[i] = quantizer.Coefficient{
				LogAmplitude: 0.5 * math.Log(float64(a2)+1e-24),
				Weight:       float64(a2),
				Amplitude:    float64(mdctOut[i]),
			}
		}
		maxKbps := quantizer.MaxKbps(n, c, s.cfg.SampleRate)
		delta := quantizer.Delta(targetKbps, maxKbps)
		zones := quantizer.Partition(coeffs, delta)

		ratecoeffs := make([]ratectrl.Coefficient, n)
		for i := 0; i < n; i++ {
			ratecoeffs[i] = ratectrl.Coefficient{Band: i, Importance: importance[i]}
		}

		buildPlan := func(kept map[int]bool) bitstream.ChannelPlan {
			return s.buildChannelPlan(zones, mdctOut, kept, noiseAn)
		}
		kept := sel(ratecoeffs, buildPlan)
		plan := buildPlan(kept)
		bitstream.WriteChannel(s.a.writer, plan)

		s.analysisPower[ch] *= 0.75
		copy(s.a.lastBlock[ch], cur[ch])
	}

	copy(dst, s.a.writer.Bytes())
	return s.a.writer.BitLength(), nil
}

// buildChannelPlan quantizes mdctOut against zones, zeroing any coefficient
// not present in kept, and attaches noise fill to zones marked unused.
func (s *State) buildChannelPlan(zones []quantizer.Zone, mdctOut []float32, kept map[int]bool, noiseAn *noise.Analyzer) bitstream.ChannelPlan {
	n := len(mdctOut)
	values := make([]int, n)
	noiseFill := make([]bitstream.NoiseFill, len(zones))

	for zi, z := range zones {
		step := math.Pow(2, float64(z.Exponent))
		for i := z.Start; i < z.End; i++ {
			if !kept[i] {
				continue
			}
			v := int(math.Round(float64(mdctOut[i]) / step))
			if v > 7 {
				v = 7
			}
			if v < -7 {
				v = -7
			}
			values[i] = v
		}
		if z.Unused && noiseAn != nil {
			q := noiseAn.NoiseQuant(z.Start, z.End-z.Start, z.Exponent)
			if q > 0 {
				amp, decay := noiseAn.HFExt(z.Start, z.End-z.Start, z.Exponent)
				noiseFill[zi] = bitstream.NoiseFill{Enabled: true, Quant: q, HFAmplitude: amp, HFDecay: decay}
			}
		}
	}

	return bitstream.ChannelPlan{Zones: zones, Values: values, Noise: noiseFill}
}

// transformChannel runs the Fourier kernel over every sub-block of one
// channel in time order, threading the lap between sub-blocks: the first
// sub-block's lap comes from the tail of the previous block, and every
// later sub-block's lap is simply the immediately preceding samples of the
// current block (already available, since sub-blocks within a block are
// processed in order).
func (s *State) transformChannel(ch int, cur []float32, pattern transient.Pattern) (mdctOut, mdstOut []float32) {
	n := len(cur)
	mdctOut = s.a.mdctOut[:n]
	mdstOut = s.a.mdstOut[:n]

	offset := 0
	for subIdx, sz := range pattern.SubBlockSizes {
		kernel := s.kernels[sz]
		if kernel == nil {
			kernel = mdct.NewKernel(sz)
			s.kernels[sz] = kernel
		}

		windowed := s.a.windowed[:2*sz]
		if offset == 0 {
			copy(windowed[:sz], s.a.lastBlock[ch][len(s.a.lastBlock[ch])-sz:])
		} else {
			copy(windowed[:sz], cur[offset-sz:offset])
		}
		copy(windowed[sz:], cur[offset:offset+sz])

		transitionLen := sz
		if subIdx == pattern.TransientIndex {
			ov := sz >> uint(pattern.OverlapScale)
			if ov < 16 {
				ov = 16
			}
			if ov > sz {
				ov = sz
			}
			transitionLen = ov
		}
		win := mdct.Window(sz, transitionLen)
		mdct.Apply(win, windowed, windowed)

		kernel.Transform(windowed, mdctOut[offset:offset+sz], mdstOut[offset:offset+sz])
		offset += sz
	}

	return mdctOut, mdstOut
}
