package memory

import (
	"fmt"
	"testing"

	"github.com/hivemindlab/swarm/pkg/models"
)

var retrievalTasks = []string{
	"implement a write-ahead log for the storage engine",
	"research post-quantum key exchange adoption",
	"benchmark columnar scan throughput",
	"deploy canary releases behind the ingress",
	"validate invoice reconciliation totals",
	"forecast gpu supply constraints",
	"analyze churn drivers in the annual cohort",
	"investigate flaky integration suite timing",
	"study cache eviction under skewed access",
	"survey vector database pricing models",
	"audit terraform state drift",
	"refactor the retry budget accounting",
}

func seedRetrievalCorpus(t *testing.T, b *Bank) []*models.Pattern {
	t.Helper()
	patterns := make([]*models.Pattern, len(retrievalTasks))
	for i, task := range retrievalTasks {
		p, _, err := b.RecordExecution("job-1", task,
			successResult(models.RoleExplorer, fmt.Sprintf("findings %d for %s", i, task)), 5)
		if err != nil {
			t.Fatalf("RecordExecution(%q) error = %v", task, err)
		}
		patterns[i] = p
	}
	return patterns
}

func TestSearchSimilarLinearScan(t *testing.T) {
	b := newTestBank(t)

	target, _, err := b.RecordExecution("job-1", "implement caching layer",
		successResult(models.RoleExplorer, "cache design notes"), 5)
	if err != nil {
		t.Fatalf("RecordExecution() error = %v", err)
	}
	if _, _, err := b.RecordExecution("job-1", "survey solar panel yields",
		successResult(models.RoleTrendAnalyst, "yields improving yearly"), 5); err != nil {
		t.Fatalf("RecordExecution() error = %v", err)
	}

	results, err := b.SearchSimilar("implement caching layer", 2)
	if err != nil {
		t.Fatalf("SearchSimilar() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Pattern.ID != target.ID {
		t.Errorf("top result = %q, want %q", results[0].Pattern.Task, target.Task)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("scores not descending: %v then %v", results[0].Score, results[1].Score)
	}
}

func TestSearchSimilarGraphAgreesWithLinear(t *testing.T) {
	b := newTestBank(t)
	patterns := seedRetrievalCorpus(t, b)

	query := retrievalTasks[4]
	linear, err := b.SearchSimilar(query, 3)
	if err != nil {
		t.Fatalf("SearchSimilar() linear error = %v", err)
	}

	indexed, err := b.RebuildIndex()
	if err != nil {
		t.Fatalf("RebuildIndex() error = %v", err)
	}
	if indexed != len(patterns) {
		t.Fatalf("RebuildIndex() indexed %d, want %d", indexed, len(patterns))
	}
	if !b.index.Ready() {
		t.Fatal("index not ready after rebuild over full corpus")
	}

	graph, err := b.SearchSimilar(query, 3)
	if err != nil {
		t.Fatalf("SearchSimilar() graph error = %v", err)
	}

	if len(linear) == 0 || len(graph) == 0 {
		t.Fatalf("empty results: linear=%d graph=%d", len(linear), len(graph))
	}
	if linear[0].Pattern.ID != patterns[4].ID {
		t.Errorf("linear top = %q, want the matching task", linear[0].Pattern.Task)
	}
	if graph[0].Pattern.ID != linear[0].Pattern.ID {
		t.Errorf("graph top = %q, linear top = %q; paths disagree",
			graph[0].Pattern.Task, linear[0].Pattern.Task)
	}
}

func TestGraphQueryNilBeforeBuild(t *testing.T) {
	g := newGraphIndex(defaultFanOut, defaultSearchDepth)
	if ids := g.Query(EmbedText("anything"), 5); ids != nil {
		t.Errorf("Query() before build = %v, want nil", ids)
	}
	if g.Ready() {
		t.Error("Ready() = true before build")
	}
}

func TestSimilarPatternsImplementsConsultation(t *testing.T) {
	b := newTestBank(t)
	seedRetrievalCorpus(t, b)

	patterns, err := b.SimilarPatterns(retrievalTasks[0], 3)
	if err != nil {
		t.Fatalf("SimilarPatterns() error = %v", err)
	}
	if len(patterns) != 3 {
		t.Fatalf("len(patterns) = %d, want 3", len(patterns))
	}
	if patterns[0].Task != retrievalTasks[0] {
		t.Errorf("top pattern task = %q, want %q", patterns[0].Task, retrievalTasks[0])
	}
}

func TestRunLearningSessionThreshold(t *testing.T) {
	b := newTestBank(t)

	if _, _, err := b.RecordExecution("job-1", "implement snapshot isolation",
		successResult(models.RoleExplorer, "mvcc notes"), 5); err != nil {
		t.Fatalf("RecordExecution() error = %v", err)
	}

	report, err := b.RunLearningSession(2, false)
	if err != nil {
		t.Fatalf("RunLearningSession() error = %v", err)
	}
	if !report.Skipped {
		t.Fatal("session ran below threshold, want skipped")
	}

	if _, _, err := b.RecordExecution("job-1", "implement snapshot restore",
		successResult(models.RoleDepthAnalyst, "restore path notes"), 5); err != nil {
		t.Fatalf("RecordExecution() error = %v", err)
	}

	report, err = b.RunLearningSession(2, false)
	if err != nil {
		t.Fatalf("RunLearningSession() error = %v", err)
	}
	if report.Skipped {
		t.Fatal("session skipped at threshold, want run")
	}
	if report.Distillations != 1 {
		t.Errorf("Distillations = %d, want 1", report.Distillations)
	}
	if report.Associations != 1 {
		t.Errorf("Associations = %d, want 1", report.Associations)
	}

	n, err := b.SuccessesSinceSession()
	if err != nil {
		t.Fatalf("SuccessesSinceSession() error = %v", err)
	}
	if n != 0 {
		t.Errorf("counter after session = %d, want 0", n)
	}
}

func TestStats(t *testing.T) {
	b := newTestBank(t)
	seedRetrievalCorpus(t, b)

	if _, err := b.RunLearningSession(0, true); err != nil {
		t.Fatalf("RunLearningSession() error = %v", err)
	}

	stats, err := b.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Patterns != len(retrievalTasks) {
		t.Errorf("Patterns = %d, want %d", stats.Patterns, len(retrievalTasks))
	}
	if stats.SuccessfulPatterns != len(retrievalTasks) {
		t.Errorf("SuccessfulPatterns = %d, want %d", stats.SuccessfulPatterns, len(retrievalTasks))
	}
	if stats.Episodes != len(retrievalTasks) {
		t.Errorf("Episodes = %d, want %d", stats.Episodes, len(retrievalTasks))
	}
	if stats.Associations == 0 {
		t.Error("Associations = 0, want > 0")
	}
	if !stats.IndexReady {
		t.Error("IndexReady = false after learning session")
	}
}
