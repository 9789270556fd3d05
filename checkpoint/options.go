package checkpoint

import (
	"time"

	"github.com/apex/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/jonwraymond/pycheckpoint/serialize"
)

// DefaultDir is the checkpoint root used when WithDir is not given.
const DefaultDir = ".pycheckpoint"

// config collects per-wrap settings.
type config struct {
	dir        string
	serializer serialize.Serializer
	canonical  bool
	version    string
	logger     log.Interface
	meter      metric.MeterProvider
	now        func() time.Time
}

func defaultConfig() config {
	return config{
		dir:        DefaultDir,
		serializer: serialize.Msgpack(),
		canonical:  true,
		logger:     log.Log,
		meter:      noop.NewMeterProvider(),
		now:        time.Now,
	}
}

// Option configures Wrap.
type Option func(*config)

// WithDir sets the checkpoint root directory. The default is ".pycheckpoint"
// relative to the working directory.
func WithDir(dir string) Option {
	return func(c *config) { c.dir = dir }
}

// WithSerializer selects the serialization backend. The default is
// serialize.Msgpack.
func WithSerializer(s serialize.Serializer) Option {
	return func(c *config) { c.serializer = s }
}

// WithRawArgs disables argument canonicalization: arguments are hashed in
// their literal call-site form, so positional and named spellings of the
// same call no longer share an identity.
func WithRawArgs() Option {
	return func(c *config) { c.canonical = false }
}

// WithVersion replaces source-based logic fingerprinting with an explicit
// tag: the digest becomes a hash of the function's qualified name plus the
// tag. Bump the tag whenever the function's behavior changes. Required for
// closures, bound methods, and stripped binaries, where source inspection
// is impossible.
func WithVersion(tag string) Option {
	return func(c *config) { c.version = tag }
}

// WithLogger sets the logger for cache-hit reporting and degrade warnings.
// The default is the apex/log standard logger.
func WithLogger(logger log.Interface) Option {
	return func(c *config) { c.logger = logger }
}

// WithMeterProvider enables call/hit/miss/error counters on the given
// OpenTelemetry provider. Metrics are off (noop) by default.
func WithMeterProvider(p metric.MeterProvider) Option {
	return func(c *config) { c.meter = p }
}

// WithNow injects the clock used for dates in new directory and artifact
// names. Tests use this; lookup itself is date-independent.
func WithNow(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}
