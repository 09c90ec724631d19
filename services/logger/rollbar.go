package logsvc

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/kizito-simon15/montessori-sub000/core"
)

// RollbarLogger prints every entry and reports it to its own rollbar client.
//
// Besides the message, an entry takes any of: an error (reported with its stack),
// a map[string]interface{} of extras and the core.Actor who triggered it.
type RollbarLogger struct {
	std    *log.Logger
	client *rollbar.Client
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	client := rollbar.NewAsync(conf.RollbarToken, conf.Env, conf.Build, conf.Server.Host, "")
	client.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std, client: client}
}

// NewStdLogger prints to stdout with a component prefix such as "API : ".
// Reporting is off in debug mode or without a token.
func NewStdLogger(conf *core.Config, prefix string, flags int) *RollbarLogger {
	l := NewRollbarLogger(log.New(os.Stdout, prefix, flags), conf)
	l.Enable(!conf.Debug && conf.RollbarToken != "")
	return l
}

func (l *RollbarLogger) Enable(enabled bool) {
	l.client.SetEnabled(enabled)
}

// Close flushes pending reports.
func (l *RollbarLogger) Close() error {
	return l.client.Close()
}

type entry struct {
	err    error
	extras map[string]interface{}
	actor  *core.Actor
	rest   []interface{}
}

func parseArgs(args []interface{}) entry {
	var e entry
	for _, arg := range args {
		switch v := arg.(type) {
		case core.Actor:
			if e.actor == nil && v.StaffID > 0 {
				a := v
				e.actor = &a
			}
		case error:
			if e.err == nil {
				e.err = v
			} else {
				e.rest = append(e.rest, v)
			}
		case map[string]interface{}:
			if e.extras == nil {
				e.extras = make(map[string]interface{}, len(v))
			}
			for k, x := range v {
				e.extras[k] = x
			}
		default:
			e.rest = append(e.rest, v)
		}
	}
	if len(e.rest) > 0 {
		if e.extras == nil {
			e.extras = make(map[string]interface{}, 1)
		}
		e.extras["args"] = fmt.Sprint(e.rest...)
	}
	return e
}

func (l *RollbarLogger) log(level, msg string, args []interface{}) {
	e := parseArgs(args)

	l.std.Println(msg)
	if e.err != nil {
		l.std.Printf("%+v\n", e.err)
	}
	for _, v := range e.rest {
		l.std.Printf("%+v\n", v)
	}

	ctx := context.Background()
	if e.actor != nil {
		ctx = rollbar.NewPersonContext(ctx, &rollbar.Person{Id: e.actor.ID(), Username: e.actor.Name})
	}
	if e.err != nil {
		if e.extras == nil {
			e.extras = make(map[string]interface{}, 1)
		}
		e.extras["message"] = msg
		l.client.ErrorWithExtrasAndContext(ctx, level, e.err, e.extras)
		return
	}
	l.client.MessageWithExtrasAndContext(ctx, level, msg, e.extras)
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }
func (l *RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l *RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l *RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

// Fatal reports, waits for the report to leave and exits.
func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	_ = l.client.Close()
	l.std.Fatal(msg)
}
