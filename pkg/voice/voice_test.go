package voice

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	glog "gorm.io/gorm/logger"

	"github.com/code-100-precent/TableEcho/internal/models"
	"github.com/code-100-precent/TableEcho/pkg/cache"
	"github.com/code-100-precent/TableEcho/pkg/llm"
)

// testNow is a fixed clock so date validation is stable regardless of when tests run
var testNow = time.Date(2025, 5, 30, 12, 0, 0, 0, time.Local)

type fakeReply struct {
	reply *llm.Reply
	err   error
}

// fakeProvider is a scripted reasoning engine: replies are consumed in order,
// with an optional block channel to hold a Converse call open mid-turn
type fakeProvider struct {
	mu            sync.Mutex
	queue         []fakeReply
	followUp      string
	followUpErr   error
	analyze       map[llm.AnalysisTask]string
	analyzeErr    error
	converseCalls int
	analyzeCalls  int

	block   chan struct{}
	started chan struct{}
}

func (p *fakeProvider) Converse(ctx context.Context, messages []llm.Message, convCtx llm.ConversationContext, tools []llm.ToolDefinition) (*llm.Reply, error) {
	p.mu.Lock()
	p.converseCalls++
	item := fakeReply{reply: &llm.Reply{Text: "Okay."}}
	if len(p.queue) > 0 {
		item = p.queue[0]
		p.queue = p.queue[1:]
	}
	started, block := p.started, p.block
	p.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return item.reply, item.err
}

func (p *fakeProvider) FollowUp(ctx context.Context, messages []llm.Message, convCtx llm.ConversationContext, action llm.ActionCall, result json.RawMessage) (string, error) {
	if p.followUpErr != nil {
		return "", p.followUpErr
	}
	if p.followUp != "" {
		return p.followUp, nil
	}
	return "Done.", nil
}

func (p *fakeProvider) Analyze(ctx context.Context, task llm.AnalysisTask, transcript string) (string, error) {
	p.mu.Lock()
	p.analyzeCalls++
	p.mu.Unlock()
	if p.analyzeErr != nil {
		return "", p.analyzeErr
	}
	if v, ok := p.analyze[task]; ok {
		return v, nil
	}
	return "ok", nil
}

// fakeSynth echoes the text back as audio bytes
type fakeSynth struct {
	err error
}

func (s *fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("audio:" + text), nil
}

func (s *fakeSynth) Close() error { return nil }

type testEnv struct {
	db           *gorm.DB
	store        *SessionStore
	availability *Availability
	dispatcher   *Dispatcher
	finalizer    *Finalizer
	coordinator  *Coordinator
	provider     *fakeProvider
	synth        *fakeSynth
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	silentLogger := glog.New(
		log.New(io.Discard, "", log.LstdFlags),
		glog.Config{LogLevel: glog.Silent, IgnoreRecordNotFoundError: true},
	)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: silentLogger})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := models.MigrateAll(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	local := cache.NewLocalCache(cache.LocalConfig{
		DefaultExpiration: time.Hour,
		CleanupInterval:   time.Hour,
	})

	now := func() time.Time { return testNow }
	provider := &fakeProvider{}
	synth := &fakeSynth{}
	nop := zap.NewNop()

	store := NewSessionStore(local, time.Hour)
	availability := NewAvailability(db, 11, 22, 2)
	availability.now = now
	finalizer := NewFinalizer(db, store, provider, nop)
	dispatcher := NewDispatcher(db, availability, finalizer, 12, nop)
	dispatcher.now = now
	coordinator := NewCoordinator(store, db, provider, synth, dispatcher, finalizer,
		Options{BusinessName: "Bella Vista", OpeningHour: 11, ClosingHour: 22}, nop)
	coordinator.now = now

	return &testEnv{
		db:           db,
		store:        store,
		availability: availability,
		dispatcher:   dispatcher,
		finalizer:    finalizer,
		coordinator:  coordinator,
		provider:     provider,
		synth:        synth,
	}
}

func (e *testEnv) seedCustomer(t *testing.T, phone, name string) *models.Customer {
	t.Helper()
	customer, err := models.GetOrCreateCustomer(e.db, phone)
	if err != nil {
		t.Fatalf("failed to seed customer: %v", err)
	}
	if name != "" {
		if err := models.UpdateCustomerName(e.db, customer.ID, name); err != nil {
			t.Fatalf("failed to set customer name: %v", err)
		}
		customer.Name = name
	}
	return customer
}
