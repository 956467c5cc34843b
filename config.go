package ulc

// Flags enumerates the encoder's runtime-toggleable behaviors. The
// reference expressed these as preprocessor switches
// (ULC_USE_PSYCHOACOUSTICS, ULC_USE_WINDOW_SWITCHING, ULC_USE_NOISE_CODING);
// here they are plain configuration values.
type Flags struct {
	Psychoacoustics bool
	WindowSwitching bool
	NoiseCoding     bool
}

// Config holds the immutable-after-init block parameters plus optional
// ambient collaborators.
type Config struct {
	SampleRate int
	Channels   int
	BlockSize  int
	Flags      Flags

	// Logger, if non-nil, receives debug-level messages at the numeric
	// degeneracy points described in §7 (zero-energy blocks, all-silence
	// channels). It is never required for correct operation.
	Logger Logger
}

// Logger is the minimal logging surface State needs; *log.Logger from
// github.com/charmbracelet/log satisfies it directly.
type Logger interface {
	Debugf(format string, args ...any)
}

// BlockParams is the read-only view of a Config's block shape, exposed to
// sub-components that need the shape and flags but not the logger.
type BlockParams struct {
	SampleRate int
	Channels   int
	BlockSize  int
	Flags      Flags
}
