package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/integrations/nrlogrus"
	"github.com/newrelic/go-agent/v3/newrelic"
	log "github.com/sirupsen/logrus"

	"github.com/CMSgov/casemix-app/casemix/utils"
	"github.com/CMSgov/casemix-app/conf"
)

// Timer times the stages of a case-mix run.
//
//	timer := metrics.GetTimer()
//	defer timer.Close()
//	ctx := metrics.NewContext(ctx, timer)
//	ctx, close := metrics.NewParent(ctx, metrics.StagePipeline)
//	defer close()
//	closeLoad := metrics.NewChild(ctx, metrics.StageLoadBillingRecords)
//	// read the billing table
//	closeLoad()
type Timer interface {
	// start begins a transaction for stage and embeds it in the returned context.
	start(parentCtx context.Context, stage Stage) (ctx context.Context, close func())

	// startSegment times stage within the transaction found in parentCtx.
	startSegment(parentCtx context.Context, stage Stage) (close func())

	// Close flushes pending metrics and releases the Timer.
	Close()
}

type key int

const timerKey key = 0

// NewContext returns a new Context that carries the provided Timer
func NewContext(ctx context.Context, t Timer) context.Context {
	return context.WithValue(ctx, timerKey, t)
}

// NewParent starts timing a parent stage and embeds it into the returned context.
func NewParent(ctx context.Context, stage Stage) (context.Context, func()) {
	return fromContext(ctx).start(ctx, stage)
}

// NewChild times stage within the parent stage carried by ctx.
func NewChild(ctx context.Context, stage Stage) func() {
	return fromContext(ctx).startSegment(ctx, stage)
}

var defaultTimer = &noopTimer{}

// fromContext returns the Timer associated with the context, or a no-op timer.
func fromContext(ctx context.Context) Timer {
	t, ok := ctx.Value(timerKey).(Timer)
	if !ok {
		return defaultTimer
	}
	return t
}

// GetTimer returns a New Relic backed Timer, or a no-op one when the agent cannot start.
func GetTimer() Timer {
	target := conf.GetEnv("DEPLOYMENT_TARGET")
	if target == "" {
		target = "local"
	}
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(fmt.Sprintf("CASEMIX-%s", target)),
		newrelic.ConfigLicense(conf.GetEnv("NEW_RELIC_LICENSE_KEY")),
		newrelic.ConfigEnabled(true),
		func(cfg *newrelic.Config) {
			cfg.HighSecurity = true
			cfg.Logger = nrlogrus.StandardLogger()
		},
	)
	if err != nil {
		log.Warnf("Failed to instantiate New Relic application. Default to no-op timer. %s", err.Error())
		return &noopTimer{}
	}

	timeout := time.Duration(utils.GetEnvInt("NEW_RELIC_CONNECTION_TIMEOUT_SECONDS", 30)) * time.Second
	if err = app.WaitForConnection(timeout); err != nil {
		log.Warnf("Failed to establish connection to New Relic server in %s. Default to no-op timer.", timeout)
		return &noopTimer{}
	}

	log.Info("Using New Relic backed timer.")
	return &timer{app}
}

var _ Timer = &timer{}

type timer struct {
	nr *newrelic.Application
}

func (t *timer) start(parentCtx context.Context, stage Stage) (ctx context.Context, close func()) {
	if !stage.IsParent() {
		log.Warnf("Stage %s is not a parent stage.", stage)
	}
	txn := t.nr.StartTransaction(stage.String())
	txn.AddAttribute("casemixStage", stage.String())
	ctx = newrelic.NewContext(parentCtx, txn)
	return ctx, func() { txn.End() }
}

func (t *timer) startSegment(parentCtx context.Context, stage Stage) (close func()) {
	txn := newrelic.FromContext(parentCtx)
	if txn == nil {
		log.WithField("stage", stage).Warn("No transaction found. Cannot time stage.")
		return noop
	}
	segment := txn.StartSegment(stage.String())
	return func() { segment.End() }
}

func (t *timer) Close() {
	const shutdownTimeout = 30 * time.Second
	t.nr.Shutdown(shutdownTimeout)
}

var _ Timer = &noopTimer{}

type noopTimer struct{}

// start keeps parentCtx so callers still see their values, the Timer included.
func (t *noopTimer) start(parentCtx context.Context, stage Stage) (ctx context.Context, close func()) {
	return parentCtx, noop
}

func (t *noopTimer) startSegment(parentCtx context.Context, stage Stage) (close func()) {
	return noop
}

func (t *noopTimer) Close() {}

func noop() {}
