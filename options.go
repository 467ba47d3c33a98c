package celpack

// Options carries every knob of a single pipeline invocation, populated
// from flags (with an optional project-level YAML file underneath), per
// §4.9.
type Options struct {
	BankSize int
	Segment  string
	Prefix   string
	// FlipImagePath is an alternate, artist-drawn left-facing image used
	// in place of a software mirror of the primary image whenever the
	// cel-position file declares `hflip`. Only NewFromPath loads it; New
	// callers that already hold a decoded flip image should construct a
	// Converter through the package's lower-level path instead.
	FlipImagePath         string
	WriteFrameNumbersPath string
	Intermediate          bool
	Quiet                 bool
	Verbose               bool
	ColorTolerance        float64
	NumWorkers            int
	CacheDir              string
}

// DefaultOptions returns the baseline knob values used when neither a
// config file nor flags override them.
func DefaultOptions() Options {
	return Options{
		BankSize:       BankSize,
		Segment:        "RODATA",
		ColorTolerance: DefaultColorTolerance,
	}
}

// Merge overlays non-zero fields of o onto a copy of base, implementing
// "CLI flags always override file values". Zero-valued fields in o (the
// flag set's defaults having not been touched) fall through to base.
func (o Options) Merge(base Options) Options {
	out := base
	if o.BankSize != 0 {
		out.BankSize = o.BankSize
	}
	if o.Segment != "" {
		out.Segment = o.Segment
	}
	if o.Prefix != "" {
		out.Prefix = o.Prefix
	}
	if o.FlipImagePath != "" {
		out.FlipImagePath = o.FlipImagePath
	}
	if o.WriteFrameNumbersPath != "" {
		out.WriteFrameNumbersPath = o.WriteFrameNumbersPath
	}
	if o.ColorTolerance != 0 {
		out.ColorTolerance = o.ColorTolerance
	}
	if o.NumWorkers != 0 {
		out.NumWorkers = o.NumWorkers
	}
	if o.CacheDir != "" {
		out.CacheDir = o.CacheDir
	}
	out.Intermediate = out.Intermediate || o.Intermediate
	out.Quiet = out.Quiet || o.Quiet
	out.Verbose = out.Verbose || o.Verbose
	return out
}
