package options

// DefaultOptions is the stricter, CPU-bounded configuration. Every knob trades
// recall against per-token cost; none of them affects determinism.
var DefaultOptions = CorrectorOptions{
	CorrectionEnabled: true,
	MaxCandidates:     120,
	MinRatio:          0.78,
	MaxDistance:       2,
	LengthSlack:       3,
	CacheCapacity:     5000,
	MinTokenLength:    0,
}

type CorrectorOptions struct {
	CorrectionEnabled bool
	MaxCandidates     int     // per-bucket candidate cap for the bucketed matcher
	MinRatio          float64 // acceptance threshold on 1 - distance/maxLen
	MaxDistance       int     // Levenshtein cap
	LengthSlack       int     // length pre-filter applied before computing distance
	CacheCapacity     int     // entry bound for each memo cache
	MinTokenLength    int     // tokens shorter than this are never corrected; 0 disables
}

type Options interface {
	Apply(options *CorrectorOptions)
}

type FuncConfig struct {
	ops func(options *CorrectorOptions)
}

func (w FuncConfig) Apply(conf *CorrectorOptions) {
	w.ops(conf)
}

func NewFuncOption(f func(options *CorrectorOptions)) *FuncConfig {
	return &FuncConfig{ops: f}
}

// Build applies opts on top of DefaultOptions.
func Build(opts ...Options) CorrectorOptions {
	o := DefaultOptions
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(&o)
		}
	}
	return o
}

func WithMaxCandidates(n int) Options {
	return NewFuncOption(func(options *CorrectorOptions) {
		options.MaxCandidates = n
	})
}

func WithMinRatio(ratio float64) Options {
	return NewFuncOption(func(options *CorrectorOptions) {
		options.MinRatio = ratio
	})
}

func WithMaxDistance(d int) Options {
	return NewFuncOption(func(options *CorrectorOptions) {
		options.MaxDistance = d
	})
}

func WithLengthSlack(slack int) Options {
	return NewFuncOption(func(options *CorrectorOptions) {
		options.LengthSlack = slack
	})
}

func WithCacheCapacity(capacity int) Options {
	return NewFuncOption(func(options *CorrectorOptions) {
		options.CacheCapacity = capacity
	})
}

func WithMinTokenLength(n int) Options {
	return NewFuncOption(func(options *CorrectorOptions) {
		options.MinTokenLength = n
	})
}

// WithoutCorrection keeps only sanitization.
func WithoutCorrection() Options {
	return NewFuncOption(func(options *CorrectorOptions) {
		options.CorrectionEnabled = false
	})
}

// Presets mirroring the looser variants of the pipeline.

// WithLenientMatching accepts more distant candidates from a larger pool.
func WithLenientMatching() Options {
	return NewFuncOption(func(options *CorrectorOptions) {
		options.MaxCandidates = 200
		options.MinRatio = 0.70
		options.MaxDistance = 3
		options.LengthSlack = 4
	})
}

// WithStrictMatching is the default profile, spelled out.
func WithStrictMatching() Options {
	return NewFuncOption(func(options *CorrectorOptions) {
		options.MaxCandidates = 120
		options.MinRatio = 0.78
		options.MaxDistance = 2
		options.LengthSlack = 3
	})
}
