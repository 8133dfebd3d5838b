package social

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/vovakirdan/skybird/internal/notify"
	"github.com/vovakirdan/skybird/internal/progress"
)

type fakeService struct {
	mu           sync.Mutex
	scores       map[string][]int
	achievements map[string]float64
	err          error
	panic        bool
}

func newFakeService() *fakeService {
	return &fakeService{scores: make(map[string][]int), achievements: make(map[string]float64)}
}

func (f *fakeService) PostScore(_ context.Context, score int, lb string) (int64, error) {
	if f.panic {
		panic("boom")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.scores[lb] = append(f.scores[lb], score)
	return int64(len(f.scores[lb])), nil
}

func (f *fakeService) ReportProgress(_ context.Context, id string, pct float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.achievements[id] = pct
	return nil
}

func collectScorePosts(bus *notify.Bus) func() []notify.ScorePosted {
	var mu sync.Mutex
	var got []notify.ScorePosted
	bus.Subscribe(notify.KindScorePosted, func(n notify.Notification) {
		mu.Lock()
		got = append(got, n.(notify.ScorePosted))
		mu.Unlock()
	})
	return func() []notify.ScorePosted {
		mu.Lock()
		defer mu.Unlock()
		return append([]notify.ScorePosted(nil), got...)
	}
}

func TestPostScore(t *testing.T) {
	svc := newFakeService()
	bus := notify.NewBus()
	posts := collectScorePosts(bus)

	p := New(Config{Scores: svc, Achievements: svc, Bus: bus, SignedIn: true})
	defer p.Close()

	p.PostScore(42, "lb_easy")
	p.Wait()

	if got := svc.scores["lb_easy"]; len(got) != 1 || got[0] != 42 {
		t.Errorf("Service scores = %v", got)
	}
	got := posts()
	if len(got) != 1 || got[0].Score != 42 || got[0].Err != nil {
		t.Errorf("ScorePosted notifications = %+v", got)
	}
}

func TestPostScoreFailureIsPublished(t *testing.T) {
	svc := newFakeService()
	svc.err = errors.New("offline")
	bus := notify.NewBus()
	posts := collectScorePosts(bus)

	p := New(Config{Scores: svc, Bus: bus, SignedIn: true})
	defer p.Close()

	p.PostScore(7, "lb_hard")
	p.Wait()

	got := posts()
	if len(got) != 1 || !errors.Is(got[0].Err, svc.err) {
		t.Errorf("Expected failed ScorePosted, got %+v", got)
	}
}

func TestSignedOutSkipsCalls(t *testing.T) {
	svc := newFakeService()
	p := New(Config{Scores: svc, Achievements: svc})
	defer p.Close()

	if p.Available() {
		t.Fatal("Poster should start signed out")
	}
	p.PostScore(10, "lb_easy")
	p.UnlockAchievement(progress.Chick)
	p.Wait()

	if len(svc.scores) != 0 || len(svc.achievements) != 0 {
		t.Errorf("No calls expected while signed out: %v %v", svc.scores, svc.achievements)
	}

	p.SetSignedIn(true)
	p.PostScore(10, "lb_easy")
	p.Wait()
	if len(svc.scores["lb_easy"]) != 1 {
		t.Error("Call expected after sign in")
	}
}

func TestUnlockAchievementUsesRemoteID(t *testing.T) {
	svc := newFakeService()
	p := New(Config{
		Achievements: svc,
		SignedIn:     true,
		RemoteID:     func(id progress.AchievementID) string { return "remote_" + string(id) },
	})
	defer p.Close()

	p.UnlockAchievement(progress.KingOfTheSky)
	p.Wait()

	if got := svc.achievements["remote_king_of_the_sky"]; got != 100 {
		t.Errorf("Achievement progress = %v, expected 100", got)
	}
}

func TestPanickingServiceIsContained(t *testing.T) {
	svc := newFakeService()
	svc.panic = true
	p := New(Config{Scores: svc, SignedIn: true})
	defer p.Close()

	p.PostScore(1, "lb_easy")
	p.Wait()
}
