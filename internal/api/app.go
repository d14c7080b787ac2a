package api

import (
	"time"

	"github.com/yourname/eduflow/internal"
	"github.com/yourname/eduflow/internal/config"
	"github.com/yourname/eduflow/internal/session"
	"github.com/yourname/eduflow/internal/tutor"
)

type App interface {
	Logger() internal.Logger
	Sessions() *session.Manager
	Tutor() *tutor.Tutor
	Economy() config.Economy
	Now() time.Time
}

type app struct {
	logger   internal.Logger
	sessions *session.Manager
	tutor    *tutor.Tutor
	economy  config.Economy
	now      func() time.Time
}

func NewApp(logger internal.Logger, sessions *session.Manager, t *tutor.Tutor, economy config.Economy) App {
	return &app{logger: logger, sessions: sessions, tutor: t, economy: economy, now: time.Now}
}

func (a *app) Logger() internal.Logger    { return a.logger }
func (a *app) Sessions() *session.Manager { return a.sessions }
func (a *app) Tutor() *tutor.Tutor        { return a.tutor }
func (a *app) Economy() config.Economy    { return a.economy }
func (a *app) Now() time.Time             { return a.now() }
