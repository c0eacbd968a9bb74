package loyalty

// Config is the set of options recognized by both the Server and the
// Client, per the specification's external interfaces section.
type Config struct {
	// HandlePoints must be true: the point-free protocol variant
	// described in the original prototype is a strict degradation and
	// is not implemented here. It is kept on Config only so that
	// callers porting the prototype's benchmark shape have somewhere
	// to put the flag; NewServer/NewClient reject false outright.
	HandlePoints bool

	// MMax bounds the small-discrete-log decryption search window to
	// {0,...,MMax} U {-1,...,-MMax}.
	MMax uint32

	// CommitmentIntEncoding is always "u64-le"; it is surfaced in
	// Config for documentation/interop purposes, not because any
	// other encoding is supported.
	CommitmentIntEncoding string
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		HandlePoints:          true,
		MMax:                  100000,
		CommitmentIntEncoding: "u64-le",
	}
}

func (c Config) validate() error {
	if !c.HandlePoints {
		return newErr(ErrPointsRequired, "the point-free protocol variant is not implemented; Config.HandlePoints must be true")
	}
	if c.MMax == 0 {
		return newErr(ErrSerialization, "MMax must be positive")
	}
	return nil
}
