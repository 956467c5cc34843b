// Package ulc implements the encoder core of an ultra-low-complexity
// perceptual audio codec: transient analysis and window-control selection,
// a variable-decimation lapped MDCT, psychoacoustic masking, noise-floor
// and HF-extension modeling, geometric-mean-zone quantization, CBR/VBR
// coefficient selection, and a self-synchronizing nibble-oriented
// bitstream.
//
// # Basic usage
//
//	st := ulc.NewState()
//	if err := st.Init(44100, 2, 2048, ulc.Flags{Psychoacoustics: true, WindowSwitching: true}); err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Destroy()
//
//	dst := make([]byte, ulc.MaxBlockBytes(2, 2048))
//	for {
//	    bits, err := st.EncodeBlockCBR(dst, src, 128)
//	    if err != nil {
//	        break
//	    }
//	    // write dst[:(bits+7)/8] to the output stream...
//	}
//
// # Scope
//
// This package is the encoder core only: command-line front ends (file
// I/O, WAV parsing, rate-argument parsing), the decoder, and the
// surrounding container format are out of scope. Only the interfaces the
// core exposes to them are provided here.
//
// # Thread safety
//
// State instances are NOT safe for concurrent use. Each goroutine
// encoding an independent stream should have its own State.
package ulc
