package memory

import (
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hivemindlab/swarm/pkg/models"
)

func newTestBank(t *testing.T) *Bank {
	t.Helper()
	b, err := Open(filepath.Join(t.TempDir(), "bank.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := b.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func intPtr(v int) *int { return &v }

func successResult(role models.Role, output string) models.ExecutionResult {
	return models.ExecutionResult{
		WorkerID:        "w-" + string(role),
		Role:            role,
		Success:         true,
		Output:          output,
		DurationSeconds: 60,
		TokensEstimate:  200,
		GroundingScore:  intPtr(80),
	}
}

func failedResult(role models.Role, output string) models.ExecutionResult {
	res := successResult(role, output)
	res.Success = false
	res.ExitCode = 1
	res.GroundingScore = intPtr(20)
	return res
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	s := strings.Repeat("日", 200) // 3 bytes per rune, 600 bytes total

	got := truncate(s, 500)
	if !utf8.ValidString(got) {
		t.Errorf("truncate() split a rune: %q ends in invalid UTF-8", got[len(got)-6:])
	}
	if len(got) > 500 {
		t.Errorf("len(truncate()) = %d, want <= 500", len(got))
	}
	if want := strings.Repeat("日", 166); got != want {
		t.Errorf("truncate() kept %d runes, want 166", utf8.RuneCountInString(got))
	}

	if got := truncate("short", 500); got != "short" {
		t.Errorf("truncate(short) = %q, want unchanged", got)
	}
}

func TestRecordExecutionStoresPatternAndEpisode(t *testing.T) {
	b := newTestBank(t)

	pattern, episode, err := b.RecordExecution("job-1", "implement caching layer",
		successResult(models.RoleExplorer, "found three viable cache designs"), 5)
	if err != nil {
		t.Fatalf("RecordExecution() error = %v", err)
	}

	if !pattern.Success {
		t.Error("pattern.Success = false, want true")
	}
	if pattern.Reward <= 0.5 || pattern.Reward > 1 {
		t.Errorf("pattern.Reward = %v, want in (0.5, 1]", pattern.Reward)
	}
	if pattern.Role != models.RoleExplorer {
		t.Errorf("pattern.Role = %v, want %v", pattern.Role, models.RoleExplorer)
	}
	if episode.EpisodeNumber != 1 {
		t.Errorf("episode.EpisodeNumber = %d, want 1", episode.EpisodeNumber)
	}
	if episode.PatternID != pattern.ID {
		t.Errorf("episode.PatternID = %q, want %q", episode.PatternID, pattern.ID)
	}

	got, err := b.GetPattern(pattern.ID)
	if err != nil {
		t.Fatalf("GetPattern() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetPattern() = nil, want pattern")
	}
	if got.Task != pattern.Task {
		t.Errorf("got.Task = %q, want %q", got.Task, pattern.Task)
	}
}

func TestEpisodeNumbersIncrementForIdenticalContent(t *testing.T) {
	b := newTestBank(t)

	res := successResult(models.RoleVerifier, "verified all claims against sources")
	first, _, err := b.RecordExecution("job-1", "verify report accuracy", res, 5)
	if err != nil {
		t.Fatalf("RecordExecution() error = %v", err)
	}

	var last *models.LearningEpisode
	for i := 0; i < 2; i++ {
		if _, last, err = b.RecordExecution("job-1", "verify report accuracy", res, 5); err != nil {
			t.Fatalf("RecordExecution() error = %v", err)
		}
	}

	if last.PatternID != first.ID {
		t.Errorf("episode attributed to %q, want original pattern %q", last.PatternID, first.ID)
	}
	if last.EpisodeNumber != 3 {
		t.Errorf("third episode number = %d, want 3", last.EpisodeNumber)
	}

	episodes, err := b.ListEpisodes(first.ID)
	if err != nil {
		t.Fatalf("ListEpisodes() error = %v", err)
	}
	if len(episodes) != 3 {
		t.Fatalf("len(episodes) = %d, want 3", len(episodes))
	}
	for i, ep := range episodes {
		if ep.EpisodeNumber != i+1 {
			t.Errorf("episodes[%d].EpisodeNumber = %d, want %d", i, ep.EpisodeNumber, i+1)
		}
	}
}

func TestSuccessesSinceSessionCounter(t *testing.T) {
	b := newTestBank(t)

	if _, _, err := b.RecordExecution("job-1", "analyze dataset quality",
		successResult(models.RoleDepthAnalyst, "dataset is clean"), 4); err != nil {
		t.Fatalf("RecordExecution() error = %v", err)
	}
	if _, _, err := b.RecordExecution("job-1", "audit deployment pipeline",
		successResult(models.RoleVerifier, "pipeline audit passed"), 4); err != nil {
		t.Fatalf("RecordExecution() error = %v", err)
	}
	if _, _, err := b.RecordExecution("job-1", "forecast market trends",
		failedResult(models.RoleTrendAnalyst, "timed out"), 4); err != nil {
		t.Fatalf("RecordExecution() error = %v", err)
	}

	n, err := b.SuccessesSinceSession()
	if err != nil {
		t.Fatalf("SuccessesSinceSession() error = %v", err)
	}
	if n != 2 {
		t.Errorf("SuccessesSinceSession() = %d, want 2", n)
	}
}

func TestSearchPatternsKeyword(t *testing.T) {
	b := newTestBank(t)

	if _, _, err := b.RecordExecution("job-1", "research quantum error correction",
		successResult(models.RoleExplorer, "surface codes dominate recent work"), 6); err != nil {
		t.Fatalf("RecordExecution() error = %v", err)
	}
	if _, _, err := b.RecordExecution("job-1", "benchmark database latency",
		successResult(models.RoleDepthAnalyst, "p99 under ten milliseconds"), 6); err != nil {
		t.Fatalf("RecordExecution() error = %v", err)
	}

	hits, err := b.SearchPatternsKeyword("quantum", 10)
	if err != nil {
		t.Fatalf("SearchPatternsKeyword() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("len(hits) = %d, want 1", len(hits))
	}
	if hits[0].Task != "research quantum error correction" {
		t.Errorf("hits[0].Task = %q, want quantum task", hits[0].Task)
	}
}
