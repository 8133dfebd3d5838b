package cloudsave

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc"

	"github.com/vovakirdan/skybird/internal/progress"
	"github.com/vovakirdan/skybird/internal/savecodec"
)

// SyncerConfig holds configuration for a Syncer.
type SyncerConfig struct {
	Slot  string
	Birds int // roster size used to decode payloads
	Codec savecodec.Codec

	// Timeout bounds each transport round trip. Zero means no limit.
	Timeout time.Duration

	// Leaderboards maps difficulties to the leaderboards whose high scores
	// are reported back on load.
	Leaderboards map[progress.Difficulty]string

	// OnSaveComplete is called on the worker goroutine after every save
	// attempt, successful or not.
	OnSaveComplete func(SaveResult)

	Logger *log.Logger
	Now    func() time.Time
}

// SaveResult reports the end of a save attempt.
type SaveResult struct {
	Slot     string
	Metadata Metadata
	Err      error
}

// LoadResult reports the end of a load attempt.
type LoadResult struct {
	Slot     string
	Metadata Metadata

	// Apply is set when Snapshot should replace the in-memory progression.
	// It is false when the slot was empty, unreadable, or lost conflict
	// resolution against the local candidate.
	Apply    bool
	Snapshot progress.Snapshot

	// RemoteFound is set when the slot held a decodable payload.
	RemoteFound bool

	// Leaderboard holds the authoritative high score of each difficulty
	// that could be looked up.
	Leaderboard map[progress.Difficulty]int

	Err error
}

type syncerMessage interface {
	syncerMessage()
}

type loadMsg struct {
	ctx   context.Context
	local *progress.Snapshot
	reply chan LoadResult
}

func (loadMsg) syncerMessage() {}

type deleteMsg struct {
	ctx   context.Context
	reply chan error
}

func (deleteMsg) syncerMessage() {}

type flushMsg struct {
	reply chan struct{}
}

func (flushMsg) syncerMessage() {}

// Syncer serializes saves and loads of one slot.
type Syncer struct {
	transport   Transport
	leaderboard Leaderboard // optional
	cfg         SyncerConfig
	log         *log.Logger

	mu      sync.Mutex
	pending *progress.Snapshot // latest snapshot not yet written
	base    time.Duration      // play time accumulated before started
	started time.Time
	ctx     context.Context

	msgChan  chan syncerMessage
	kick     chan struct{}
	done     chan struct{}
	wg       conc.WaitGroup
	stopOnce sync.Once
}

// NewSyncer creates a syncer for cfg.Slot. lb may be nil.
func NewSyncer(t Transport, lb Leaderboard, cfg SyncerConfig) *Syncer {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Syncer{
		transport:   t,
		leaderboard: lb,
		cfg:         cfg,
		log:         logger.WithPrefix("save:" + cfg.Slot),
		ctx:         context.Background(),
		msgChan:     make(chan syncerMessage, 16),
		kick:        make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
}

// Slot returns the slot name.
func (s *Syncer) Slot() string {
	return s.cfg.Slot
}

// Start begins background processing. Saves run under ctx.
func (s *Syncer) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.started = s.cfg.Now()
	s.mu.Unlock()

	s.wg.Go(s.processMessages)
}

// Stop shuts the worker down. Saves still pending are dropped; call Flush
// first to write them.
func (s *Syncer) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

// PlayTime returns the total play time that the next save will record: the
// play time loaded from the slot plus the time elapsed since Start.
func (s *Syncer) PlayTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started.IsZero() {
		return s.base
	}
	return s.base + s.cfg.Now().Sub(s.started)
}

// RequestSave queues snap for writing and returns immediately. A snapshot
// still waiting when a newer one arrives is replaced by it.
func (s *Syncer) RequestSave(snap progress.Snapshot) {
	c := snap.Clone()
	s.mu.Lock()
	s.pending = &c
	s.mu.Unlock()

	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Load reads the slot in the background. When local is given it competes
// with the slot content by total play time; if local wins it is written
// back to the slot. The returned channel always yields exactly one result.
func (s *Syncer) Load(ctx context.Context, local *progress.Snapshot) <-chan LoadResult {
	reply := make(chan LoadResult, 1)
	if local != nil {
		c := local.Clone()
		local = &c
	}
	if !s.send(loadMsg{ctx: ctx, local: local, reply: reply}) {
		reply <- LoadResult{Slot: s.cfg.Slot, Err: ErrStopped}
	}
	return reply
}

// Delete removes the slot and drops any pending save.
func (s *Syncer) Delete(ctx context.Context) error {
	reply := make(chan error, 1)
	if !s.send(deleteMsg{ctx: ctx, reply: reply}) {
		return ErrStopped
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush waits until every save requested so far has been attempted.
func (s *Syncer) Flush(ctx context.Context) error {
	reply := make(chan struct{})
	if !s.send(flushMsg{reply: reply}) {
		return ErrStopped
	}
	select {
	case <-reply:
		return nil
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Syncer) send(msg syncerMessage) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.msgChan <- msg:
		return true
	case <-s.done:
		return false
	}
}

// processMessages is the only goroutine that touches the transport.
func (s *Syncer) processMessages() {
	for {
		select {
		case msg := <-s.msgChan:
			s.handleMessage(msg)
		case <-s.kick:
			s.drainSaves()
		case <-s.done:
			return
		}
	}
}

func (s *Syncer) handleMessage(msg syncerMessage) {
	switch m := msg.(type) {
	case loadMsg:
		m.reply <- s.handleLoad(m.ctx, m.local)
	case deleteMsg:
		m.reply <- s.handleDelete(m.ctx)
	case flushMsg:
		s.drainSaves()
		close(m.reply)
	}
}

func (s *Syncer) withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout > 0 {
		return context.WithTimeout(parent, s.cfg.Timeout)
	}
	return context.WithCancel(parent)
}

func (s *Syncer) handleLoad(parent context.Context, local *progress.Snapshot) LoadResult {
	ctx, cancel := s.withTimeout(parent)
	defer cancel()

	res := LoadResult{Slot: s.cfg.Slot}

	md, err := s.transport.OpenSlot(ctx, s.cfg.Slot)
	if err != nil {
		res.Err = fmt.Errorf("cloudsave: open slot %s: %w", s.cfg.Slot, err)
		s.log.Warn("load failed", "error", err)
		return res
	}
	res.Metadata = md
	res.Leaderboard = s.lookupLeaderboards(ctx)

	if !md.Exists() {
		if local != nil {
			s.setBase(local.TotalPlayTime)
		}
		s.log.Info("slot is empty")
		return res
	}

	data, err := s.transport.ReadSlot(ctx, md)
	if err != nil {
		res.Err = fmt.Errorf("cloudsave: read slot %s: %w", s.cfg.Slot, err)
		s.log.Warn("load failed", "error", err)
		return res
	}

	snap, err := s.cfg.Codec.Decode(data, s.cfg.Birds)
	if err != nil {
		res.Err = err
		s.log.Warn("discarding unreadable save", "revision", md.Revision, "error", err)
		return res
	}
	snap.TotalPlayTime = md.TotalPlayTime
	res.RemoteFound = true
	res.Snapshot = snap

	if local == nil {
		s.setBase(md.TotalPlayTime)
		res.Apply = true
		s.log.Info("loaded save", "revision", md.Revision, "play_time", md.TotalPlayTime)
		return res
	}

	remote := savecodec.Candidate{Data: data, TotalPlayTime: md.TotalPlayTime, Revision: md.Revision}
	mine := savecodec.Candidate{Data: s.cfg.Codec.Encode(*local), TotalPlayTime: local.TotalPlayTime}
	if savecodec.RemoteWins(mine, remote) {
		s.setBase(md.TotalPlayTime)
		res.Apply = true
		s.log.Info("remote save wins", "remote_play_time", md.TotalPlayTime, "local_play_time", local.TotalPlayTime)
		return res
	}

	s.setBase(local.TotalPlayTime)
	if !bytes.Equal(mine.Data, remote.Data) {
		s.log.Info("local save wins, writing it back", "remote_play_time", md.TotalPlayTime, "local_play_time", local.TotalPlayTime)
		s.queueWriteBack(*local)
	}
	return res
}

// queueWriteBack queues snap unless a save requested during the load is
// already pending. That save is newer than snap and is written instead.
func (s *Syncer) queueWriteBack(snap progress.Snapshot) {
	s.mu.Lock()
	queued := s.pending == nil
	if queued {
		s.pending = &snap
	}
	s.mu.Unlock()

	if !queued {
		s.log.Debug("newer save pending, skipping write-back")
		return
	}
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Syncer) lookupLeaderboards(ctx context.Context) map[progress.Difficulty]int {
	if s.leaderboard == nil || len(s.cfg.Leaderboards) == 0 {
		return nil
	}
	scores := make(map[progress.Difficulty]int, len(s.cfg.Leaderboards))
	for d, id := range s.cfg.Leaderboards {
		if id == "" {
			continue
		}
		v, err := s.leaderboard.HighScore(ctx, id)
		if err != nil {
			s.log.Warn("leaderboard lookup failed", "leaderboard", id, "error", err)
			continue
		}
		scores[d] = v
	}
	return scores
}

func (s *Syncer) handleDelete(parent context.Context) error {
	ctx, cancel := s.withTimeout(parent)
	defer cancel()

	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()

	md, err := s.transport.OpenSlot(ctx, s.cfg.Slot)
	if err != nil {
		return fmt.Errorf("cloudsave: open slot %s: %w", s.cfg.Slot, err)
	}
	if !md.Exists() {
		return nil
	}
	if err := s.transport.DeleteSlot(ctx, md); err != nil {
		return fmt.Errorf("cloudsave: delete slot %s: %w", s.cfg.Slot, err)
	}
	s.log.Info("slot deleted")
	return nil
}

func (s *Syncer) drainSaves() {
	for {
		s.mu.Lock()
		snap := s.pending
		s.pending = nil
		s.mu.Unlock()

		if snap == nil {
			return
		}
		s.write(*snap)
	}
}

func (s *Syncer) write(snap progress.Snapshot) {
	s.mu.Lock()
	parent := s.ctx
	s.mu.Unlock()

	ctx, cancel := s.withTimeout(parent)
	defer cancel()

	res := SaveResult{Slot: s.cfg.Slot}
	md, err := s.transport.OpenSlot(ctx, s.cfg.Slot)
	if err != nil {
		res.Err = fmt.Errorf("cloudsave: open slot %s: %w", s.cfg.Slot, err)
	} else {
		res.Metadata, err = s.transport.WriteSlot(ctx, md, s.cfg.Codec.Encode(snap), s.PlayTime())
		if err != nil {
			res.Err = fmt.Errorf("cloudsave: write slot %s: %w", s.cfg.Slot, err)
		}
	}

	if res.Err != nil {
		s.log.Warn("save failed", "error", res.Err)
	} else {
		s.log.Debug("saved", "revision", res.Metadata.Revision, "play_time", res.Metadata.TotalPlayTime)
	}
	if s.cfg.OnSaveComplete != nil {
		s.cfg.OnSaveComplete(res)
	}
}

func (s *Syncer) setBase(d time.Duration) {
	s.mu.Lock()
	s.base = d
	s.mu.Unlock()
}
