package checkpoint

import (
	"context"
	"fmt"
	"reflect"

	"github.com/apex/log"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/pycheckpoint/identity"
	"github.com/jonwraymond/pycheckpoint/store"
)

// Arg is re-exported so callers only import this package.
type Arg = identity.Arg

// Named binds value to the parameter called name, independent of position.
func Named(name string, value any) Arg {
	return identity.Named(name, value)
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

// Func is a wrapped function whose results are persisted on disk and
// reused across calls and processes with equivalent arguments.
type Func struct {
	fn      reflect.Value
	id      identity.Function
	cfg     config
	store   *store.Store
	metrics *metrics
	group   singleflight.Group
	outType reflect.Type
	hasErr  bool
}

// Wrap decorates fn with disk-backed memoization. fn must be a named
// function returning a value or a (value, error) pair; closures and bound
// methods additionally need WithVersion.
func Wrap(fn any, opts ...Option) (*Func, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	id, err := identity.Describe(fn, cfg.version)
	if err != nil {
		return nil, err
	}

	t := reflect.TypeOf(fn)
	var outType reflect.Type
	hasErr := false
	switch t.NumOut() {
	case 1:
		if t.Out(0) == errType {
			return nil, ErrBadSignature
		}
		outType = t.Out(0)
	case 2:
		if t.Out(1) != errType || t.Out(0) == errType {
			return nil, ErrBadSignature
		}
		outType = t.Out(0)
		hasErr = true
	default:
		return nil, ErrBadSignature
	}

	m, err := newMetrics(cfg.meter)
	if err != nil {
		cfg.logger.Warnf("checkpoint: metrics disabled for %s: %v", id.Name, err)
		m = nil
	}

	return &Func{
		fn:      reflect.ValueOf(fn),
		id:      id,
		cfg:     cfg,
		store:   store.New(cfg.dir, cfg.logger),
		metrics: m,
		outType: outType,
		hasErr:  hasErr,
	}, nil
}

// Identity returns the function's derived identity.
func (f *Func) Identity() identity.Function { return f.id }

// Call invokes the wrapped function through the checkpoint layer.
// Positional arguments are passed as plain values; Named values bind by
// parameter name. On a fresh cache hit the wrapped function does not run
// and the persisted result is returned; otherwise the function runs and a
// successful result is persisted before being returned.
//
// Binding and canonicalization errors surface. Every internal caching
// failure after that point degrades to recomputation, so wrapping never
// turns a working call into a failing one.
func (f *Func) Call(ctx context.Context, args ...any) (any, error) {
	binding, err := identity.Bind(f.id, args, f.cfg.canonical)
	if err != nil {
		return nil, err
	}
	key, err := identity.HashArgs(binding)
	if err != nil {
		return nil, err
	}

	f.metrics.call(ctx, f.id.Name)

	// Collapse concurrent identical calls onto one computation. This is
	// in-process only; cross-process races stay last-writer-wins.
	v, err, _ := f.group.Do(f.id.Digest+":"+key.Digest, func() (any, error) {
		return f.call(ctx, binding, key)
	})
	return v, err
}

func (f *Func) call(ctx context.Context, binding identity.Binding, key identity.Key) (any, error) {
	persist := true
	loc, err := f.store.Resolve(f.id, key, f.cfg.serializer.Extension(), f.cfg.now())
	if err != nil {
		f.cfg.logger.Warnf("checkpoint: lookup for %s failed, recomputing: %v", f.id.Name, err)
		f.metrics.failure(ctx, f.id.Name)
		persist = false
	}

	if persist && loc.Hit {
		if out, ok := f.load(ctx, loc, key); ok {
			return out, nil
		}
	}

	f.metrics.miss(ctx, f.id.Name)
	result, err := f.invoke(binding.Values)
	if err != nil {
		// The wrapped function's own failure: propagate, never cache.
		return result, err
	}

	if persist {
		f.persist(ctx, loc, key, result)
	}
	return result, nil
}

// load deserializes a hit. A false return means the artifact could not be
// used and the caller falls through to recomputation.
func (f *Func) load(ctx context.Context, loc store.Location, key identity.Key) (any, bool) {
	ser := f.cfg.serializer
	if loc.HitExt != ser.Extension() {
		f.cfg.logger.Warnf(
			"checkpoint: %s was written as .%s but the configured backend expects .%s; attempting to read anyway",
			loc.HitPath, loc.HitExt, ser.Extension(),
		)
	}

	out := reflect.New(f.outType)
	if err := ser.Deserialize(loc.HitPath, out.Interface()); err != nil {
		f.cfg.logger.Warnf("checkpoint: could not load %s, recomputing: %v", loc.HitPath, err)
		f.metrics.failure(ctx, f.id.Name)
		return nil, false
	}

	fields := log.Fields{
		"function": f.id.Name,
		"args":     key.Display,
		"path":     loc.HitPath,
	}
	if !loc.HitDate.IsZero() {
		fields["created"] = loc.HitDate.Format(store.DateFormat)
	}
	f.cfg.logger.WithFields(fields).Info("checkpoint: loading persisted result")
	f.metrics.hit(ctx, f.id.Name)
	return out.Elem().Interface(), true
}

// invoke calls the wrapped function with the bound argument values.
func (f *Func) invoke(values []any) (any, error) {
	t := f.fn.Type()
	fixed := t.NumIn()
	if t.IsVariadic() {
		fixed--
	}
	if len(values) < fixed || (!t.IsVariadic() && len(values) != t.NumIn()) {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrArgumentType, f.id.Name, t.NumIn(), len(values))
	}

	in := make([]reflect.Value, len(values))
	for i, v := range values {
		var pt reflect.Type
		if i < fixed {
			pt = t.In(i)
		} else {
			pt = t.In(fixed).Elem()
		}
		cv, err := convertArg(v, pt)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d of %s: %v", ErrArgumentType, i, f.id.Name, err)
		}
		in[i] = cv
	}

	outs := f.fn.Call(in)
	if f.hasErr && !outs[1].IsNil() {
		return outs[0].Interface(), outs[1].Interface().(error)
	}
	return outs[0].Interface(), nil
}

// persist writes the fresh result. Failures are logged and swallowed; the
// caller still returns the computed result.
func (f *Func) persist(ctx context.Context, loc store.Location, key identity.Key, result any) {
	if err := f.store.Prepare(loc, f.id); err != nil {
		f.cfg.logger.Warnf("checkpoint: could not prepare %s: %v", loc.Dir, err)
		f.metrics.failure(ctx, f.id.Name)
		return
	}

	staging := f.store.StagingPath(loc)
	if err := f.cfg.serializer.Serialize(staging, result); err != nil {
		f.cfg.logger.Warnf("checkpoint: could not persist result of %s: %v", f.id.Name, err)
		f.store.Discard(staging)
		f.metrics.failure(ctx, f.id.Name)
		return
	}
	if err := f.store.Commit(staging, loc, key); err != nil {
		f.cfg.logger.Warnf("checkpoint: could not commit %s: %v", loc.Artifact, err)
		f.metrics.failure(ctx, f.id.Name)
	}
}

// convertArg adapts a dynamic argument value to a parameter type. Numeric
// kinds convert freely (untyped-constant ergonomics); everything else must
// be assignable.
func convertArg(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch t.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("nil is not a valid %s", t)
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if numericKind(rv.Kind()) && numericKind(t.Kind()) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%T is not assignable to %s", v, t)
}

func numericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
