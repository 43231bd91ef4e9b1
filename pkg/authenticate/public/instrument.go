package public

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	opCheckout        = "checkout"
	opAppProxy        = "appProxy"
	opCustomerAccount = "customerAccount"
)

// Option customises New.
type Option func(*options)

type options struct {
	log    *zap.SugaredLogger
	reg    prometheus.Registerer
	tracer trace.Tracer
}

// WithLogger sets the logger used for selection and per-call diagnostics.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithMetrics registers call counters and latency histograms on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.reg = reg }
}

// WithTracer overrides the global otel tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		log:    zap.NewNop().Sugar(),
		tracer: otel.Tracer("pubauth/authenticate/public"),
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// instrument wraps collaborators. Results and errors pass through untouched.
type instrument struct {
	log      *zap.SugaredLogger
	tracer   trace.Tracer
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newInstrument(o options) (*instrument, error) {
	ins := &instrument{log: o.log, tracer: o.tracer}
	if o.reg == nil {
		return ins, nil
	}
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pubauth",
		Subsystem: "public_auth",
		Name:      "calls_total",
		Help:      "Public authentication calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pubauth",
		Subsystem: "public_auth",
		Name:      "duration_seconds",
		Help:      "Latency of delegated public authentication calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	var err error
	if ins.calls, err = register(o.reg, calls); err != nil {
		return nil, err
	}
	if ins.duration, err = register(o.reg, duration); err != nil {
		return nil, err
	}
	return ins, nil
}

// register reuses a collector already present on reg.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (ins *instrument) result(op string, fn func(*http.Request) (Result, error)) func(*http.Request) (Result, error) {
	return func(r *http.Request) (Result, error) {
		r, done := ins.start(op, r)
		res, err := fn(r)
		done(err, res.Shop())
		return res, err
	}
}

func (ins *instrument) proxy(fn AppProxyFunc) AppProxyFunc {
	return func(r *http.Request) error {
		r, done := ins.start(opAppProxy, r)
		err := fn(r)
		done(err, "")
		return err
	}
}

func (ins *instrument) start(op string, r *http.Request) (*http.Request, func(error, string)) {
	ctx, span := ins.tracer.Start(r.Context(), "authenticate.public."+op,
		trace.WithAttributes(attribute.String("http.method", r.Method), attribute.String("url.path", r.URL.Path)))
	began := time.Now()
	return r.WithContext(ctx), func(err error, shop string) {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			ins.log.Warnw("public auth rejected", "operation", op, "path", r.URL.Path, "err", err)
		} else {
			if shop != "" {
				span.SetAttributes(attribute.String("shop", shop))
			}
			ins.log.Debugw("public auth ok", "operation", op, "shop", shop)
		}
		span.End()
		if ins.calls != nil {
			ins.calls.WithLabelValues(op, outcome).Inc()
			ins.duration.WithLabelValues(op).Observe(time.Since(began).Seconds())
		}
	}
}
