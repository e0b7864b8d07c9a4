package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alanyoungcy/marketview/internal/domain"
	"github.com/alanyoungcy/marketview/internal/platform/exchange"
)

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pct(v int64) *int64 { return &v }

// fakeBackend implements every backend-facing interface of this package and
// counts the calls it receives.
type fakeBackend struct {
	event    *domain.Event
	eventErr error

	percentages    map[string]domain.Percentages
	percentagesErr error
	chart          []domain.ChartPoint
	chartErr       error
	books          map[string][]domain.BuyOrder
	bookErr        map[string]error
	positions      []domain.Position
	positionsErr   error

	events         []domain.Event
	eventsErr      error
	allPercentages map[string]domain.EventPercentages
	allPctErr      error

	placeRefs []string
	placeErr  error
	cancelErr error
	lastPlace domain.BuyOrderRequest

	balance     int64
	balanceErr  error
	airdrop     domain.AirdropStatus
	airdropErr  error
	leaderboard []domain.LeaderboardEntry
	leaderErr   error

	mu sync.Mutex

	getEventCalls    atomic.Int32
	percentagesCalls atomic.Int32
	chartCalls       atomic.Int32
	bookCalls        atomic.Int32
	positionsCalls   atomic.Int32
	placeCalls       atomic.Int32
	cancelCalls      atomic.Int32
	inflightBooks    atomic.Int32
	maxInflightBooks atomic.Int32
}

func (f *fakeBackend) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	f.getEventCalls.Add(1)
	if f.eventErr != nil {
		return domain.Event{}, f.eventErr
	}
	if f.event == nil || f.event.ID != eventID {
		return domain.Event{}, domain.ErrNotFound
	}
	return *f.event, nil
}

func (f *fakeBackend) EventPercentages(ctx context.Context, eventID string) (map[string]domain.Percentages, error) {
	f.percentagesCalls.Add(1)
	return f.percentages, f.percentagesErr
}

func (f *fakeBackend) EventChart(ctx context.Context, eventID string) ([]domain.ChartPoint, error) {
	f.chartCalls.Add(1)
	return f.chart, f.chartErr
}

func (f *fakeBackend) MarketBuyOrders(ctx context.Context, marketID string) ([]domain.BuyOrder, error) {
	f.bookCalls.Add(1)
	n := f.inflightBooks.Add(1)
	defer f.inflightBooks.Add(-1)
	for {
		m := f.maxInflightBooks.Load()
		if n <= m || f.maxInflightBooks.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)

	if err := f.bookErr[marketID]; err != nil {
		return nil, err
	}
	return f.books[marketID], nil
}

func (f *fakeBackend) EventPositions(ctx context.Context, eventID string) ([]domain.Position, error) {
	f.positionsCalls.Add(1)
	return f.positions, f.positionsErr
}

func (f *fakeBackend) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return f.events, f.eventsErr
}

func (f *fakeBackend) AllPercentages(ctx context.Context) (map[string]domain.EventPercentages, error) {
	return f.allPercentages, f.allPctErr
}

func (f *fakeBackend) PlaceBuyOrder(ctx context.Context, req domain.BuyOrderRequest) ([]string, error) {
	f.placeCalls.Add(1)
	f.mu.Lock()
	f.lastPlace = req
	f.mu.Unlock()
	return f.placeRefs, f.placeErr
}

func (f *fakeBackend) CancelBuyOrder(ctx context.Context, orderID string) ([]string, error) {
	f.cancelCalls.Add(1)
	return []string{}, f.cancelErr
}

func (f *fakeBackend) UserPositions(ctx context.Context) ([]domain.Position, error) {
	return f.positions, f.positionsErr
}

func (f *fakeBackend) Balance(ctx context.Context) (int64, error) {
	return f.balance, f.balanceErr
}

func (f *fakeBackend) AirdropStatus(ctx context.Context) (domain.AirdropStatus, error) {
	return f.airdrop, f.airdropErr
}

func (f *fakeBackend) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	return f.leaderboard, f.leaderErr
}

// statusErr builds the error the exchange client returns for a non-2xx
// answer.
func statusErr(code int, body string) error {
	return &exchange.StatusError{StatusCode: code, Body: body}
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

type fakeBus struct {
	mu       sync.Mutex
	err      error
	channels []string
	payloads [][]byte
}

func (b *fakeBus) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channels = append(b.channels, channel)
	b.payloads = append(b.payloads, payload)
	return b.err
}

func (b *fakeBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, errors.New("not supported")
}

type fakeAudit struct {
	err    error
	events []string
}

func (a *fakeAudit) Log(ctx context.Context, event string, detail map[string]any) error {
	a.events = append(a.events, event)
	return a.err
}

func (a *fakeAudit) List(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}

type fakeAlerter struct {
	events []string
}

func (a *fakeAlerter) Notify(ctx context.Context, event, title, message string) error {
	a.events = append(a.events, event)
	return nil
}

type fakeBlob struct {
	mu        sync.Mutex
	puts      map[string][]byte
	multipart int
	err       error
}

func (b *fakeBlob) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	return b.store(path, data)
}

func (b *fakeBlob) PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error {
	b.mu.Lock()
	b.multipart++
	b.mu.Unlock()
	return b.store(path, data)
}

func (b *fakeBlob) store(path string, data io.Reader) error {
	if b.err != nil {
		return b.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, data); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.puts == nil {
		b.puts = map[string][]byte{}
	}
	b.puts[path] = buf.Bytes()
	return nil
}

type fakeLocks struct {
	held     bool
	released int
}

func (l *fakeLocks) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if l.held {
		return nil, domain.ErrLockHeld
	}
	return func() { l.released++ }, nil
}
