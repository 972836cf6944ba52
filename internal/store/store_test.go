package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Jjjmaes/AIT-sub001/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedFile creates a project managed by user 1 and one file with the given
// segment sources.
func seedFile(t *testing.T, s *Store, sources ...string) (*domain.Project, *domain.File) {
	t.Helper()
	ctx := context.Background()
	p := &domain.Project{Name: "demo", SourceLang: "en", TargetLang: "uk", ManagerID: 1}
	if err := s.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	f := &domain.File{ProjectID: p.ID, Name: "demo.txt"}
	if err := s.CreateFile(ctx, f, sources); err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}
	return p, f
}

func TestStore_New(t *testing.T) {
	s := newTestStore(t)
	if s == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestStore_New_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/path/test.db")
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestStore_ProjectAndMembers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, _ := seedFile(t, s)

	got, err := s.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got.Name != "demo" || got.Status != domain.ProjectPending {
		t.Errorf("unexpected project %+v", got)
	}

	role, err := s.MemberRole(ctx, p.ID, 1)
	if err != nil {
		t.Fatalf("MemberRole failed: %v", err)
	}
	if role != domain.RoleManager {
		t.Errorf("expected manager role, got %q", role)
	}

	if err := s.AddMember(ctx, domain.Member{ProjectID: p.ID, UserID: 7, Role: domain.RoleReviewer}); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := s.AddMember(ctx, domain.Member{ProjectID: p.ID, UserID: 7, Role: domain.RoleTranslator}); err != nil {
		t.Fatalf("AddMember (update) failed: %v", err)
	}
	role, _ = s.MemberRole(ctx, p.ID, 7)
	if role != domain.RoleTranslator {
		t.Errorf("expected role to be updated to translator, got %q", role)
	}

	role, _ = s.MemberRole(ctx, p.ID, 99)
	if role != "" {
		t.Errorf("expected no role for stranger, got %q", role)
	}

	if err := s.AddMember(ctx, domain.Member{ProjectID: p.ID, UserID: 8, Role: "owner"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for unknown role, got %v", err)
	}

	if _, err := s.GetProject(ctx, 404); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestStore_CreateFileSegments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, f := seedFile(t, s, "Hello world", "Second segment here", "Third")

	got, err := s.GetFile(ctx, f.ID)
	if err != nil {
		t.Fatalf("GetFile failed: %v", err)
	}
	if got.Progress.Total != 3 || got.Status != domain.FilePending {
		t.Errorf("unexpected file %+v", got)
	}

	segs, err := s.ListSegments(ctx, f.ID)
	if err != nil {
		t.Fatalf("ListSegments failed: %v", err)
	}
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	for i, seg := range segs {
		if seg.Index != i {
			t.Errorf("segment %d has index %d", i, seg.Index)
		}
		if seg.Status != domain.StatusPending {
			t.Errorf("segment %d has status %s", i, seg.Status)
		}
	}
	if segs[1].WordCount != 3 {
		t.Errorf("expected 3 words, got %d", segs[1].WordCount)
	}
}

func TestStore_Neighbours(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, f := seedFile(t, s, "s0", "s1", "s2", "s3", "s4", "s5")

	got, err := s.Neighbours(ctx, f.ID, 1, 2)
	if err != nil {
		t.Fatalf("Neighbours failed: %v", err)
	}
	var texts []string
	for _, seg := range got {
		texts = append(texts, seg.SourceText)
	}
	want := []string{"s0", "s2", "s3"}
	if len(texts) != len(want) {
		t.Fatalf("expected %v, got %v", want, texts)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("expected %v, got %v", want, texts)
		}
	}

	none, _ := s.Neighbours(ctx, f.ID, 1, 0)
	if len(none) != 0 {
		t.Errorf("expected no neighbours for window 0, got %d", len(none))
	}
}

func TestStore_ClaimAndSaveSegment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, f := seedFile(t, s, "Hello")
	segs, _ := s.ListSegments(ctx, f.ID)
	id := segs[0].ID

	ok, err := s.ClaimSegment(ctx, id, []domain.SegmentStatus{domain.StatusPending}, domain.StatusTranslating, nil)
	if err != nil || !ok {
		t.Fatalf("expected first claim to succeed, ok=%v err=%v", ok, err)
	}
	ok, err = s.ClaimSegment(ctx, id, []domain.SegmentStatus{domain.StatusPending}, domain.StatusTranslating, nil)
	if err != nil || ok {
		t.Fatalf("expected second claim to fail, ok=%v err=%v", ok, err)
	}

	seg, err := s.GetSegment(ctx, id)
	if err != nil {
		t.Fatalf("GetSegment failed: %v", err)
	}
	seg.Status = domain.StatusTranslated
	seg.TranslatedText = domain.StringPtr("Привіт")
	seg.TranslationMeta = domain.TranslationMeta{Origin: "ai", Model: "m", TokenCount: 12, Length: 6}
	seg.Issues = []domain.Issue{{
		Type: domain.IssueGrammar, Severity: domain.SeverityLow, Description: "comma",
		SourceSpan: &domain.Span{Start: 0, End: 5}, Status: domain.IssueOpen,
	}}

	// Saving against a stale status must not write.
	if err := s.SaveSegment(ctx, seg, domain.StatusPending); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := s.SaveSegment(ctx, seg, domain.StatusTranslating); err != nil {
		t.Fatalf("SaveSegment failed: %v", err)
	}

	got, err := s.GetSegment(ctx, id)
	if err != nil {
		t.Fatalf("GetSegment failed: %v", err)
	}
	if got.Status != domain.StatusTranslated || got.Translation() != "Привіт" {
		t.Errorf("unexpected segment %+v", got)
	}
	if got.TranslationMeta.Model != "m" || got.TranslationMeta.TokenCount != 12 {
		t.Errorf("translation meta not persisted: %+v", got.TranslationMeta)
	}
	if len(got.Issues) != 1 || got.Issues[0].SourceSpan == nil || got.Issues[0].SourceSpan.End != 5 {
		t.Errorf("issues not persisted: %+v", got.Issues)
	}
	if !errors.Is(ErrConflict, domain.ErrPrecondition) {
		t.Error("ErrConflict should match ErrPrecondition")
	}
}

func TestStore_ResolveOpenIssues_PerIssueFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, f := seedFile(t, s, "one", "two")
	segs, _ := s.ListSegments(ctx, f.ID)

	for _, seg := range segs {
		seg.Issues = []domain.Issue{
			{Type: domain.IssueAccuracy, Severity: domain.SeverityHigh, Description: "wrong", Status: domain.IssueOpen},
			{Type: domain.IssueStyle, Severity: domain.SeverityLow, Description: "meh", Status: domain.IssueOpen},
		}
		if err := s.SaveSegment(ctx, seg, domain.StatusPending); err != nil {
			t.Fatalf("SaveSegment failed: %v", err)
		}
	}

	filter := domain.IssueFilter{Severities: []domain.Severity{domain.SeverityHigh, domain.SeverityCritical}}
	ids, err := s.SegmentsWithOpenIssues(ctx, f.ID, nil, filter)
	if err != nil {
		t.Fatalf("SegmentsWithOpenIssues failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 segments, got %v", ids)
	}

	res := domain.Resolution{Action: domain.ActionReject, ResolvedBy: 1, ResolvedAt: time.Now()}
	for _, id := range ids {
		n, err := s.ResolveOpenIssues(ctx, id, nil, filter, res)
		if err != nil {
			t.Fatalf("ResolveOpenIssues failed: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 issue changed, got %d", n)
		}
	}

	segs, _ = s.ListSegments(ctx, f.ID)
	for _, seg := range segs {
		if seg.Issues[0].Status != domain.IssueRejected || seg.Issues[0].Resolution == nil {
			t.Errorf("high issue should be rejected with resolution: %+v", seg.Issues[0])
		}
		if seg.Issues[1].Status != domain.IssueOpen || seg.Issues[1].Resolution != nil {
			t.Errorf("low issue should stay open: %+v", seg.Issues[1])
		}
	}

	ids, _ = s.SegmentsWithOpenIssues(ctx, f.ID, nil, filter)
	if len(ids) != 0 {
		t.Errorf("expected no more matching segments, got %v", ids)
	}
}

func TestStore_ResolveOpenIssues_StatusScope(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, f := seedFile(t, s, "one", "two")
	segs, _ := s.ListSegments(ctx, f.ID)

	score := 80
	for i, seg := range segs {
		seg.Issues = []domain.Issue{{Type: domain.IssueAccuracy, Severity: domain.SeverityCritical, Description: "wrong", Status: domain.IssueOpen}}
		seg.Status = domain.StatusReviewPending
		if i == 0 {
			seg.Status = domain.StatusConfirmed
			seg.QualityScore = &score
		}
		if err := s.SaveSegment(ctx, seg, domain.StatusPending); err != nil {
			t.Fatalf("SaveSegment failed: %v", err)
		}
	}

	in := []domain.SegmentStatus{domain.StatusReviewPending, domain.StatusReviewCompleted}
	ids, err := s.SegmentsWithOpenIssues(ctx, f.ID, in, domain.IssueFilter{})
	if err != nil {
		t.Fatalf("SegmentsWithOpenIssues failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != segs[1].ID {
		t.Fatalf("expected only the review_pending segment, got %v", ids)
	}

	res := domain.Resolution{Action: domain.ActionAccept, ResolvedBy: 1, ResolvedAt: time.Now()}
	n, err := s.ResolveOpenIssues(ctx, segs[0].ID, in, domain.IssueFilter{}, res)
	if err != nil || n != 0 {
		t.Errorf("expected confirmed segment to be left alone, got %d %v", n, err)
	}
	got, _ := s.GetSegment(ctx, segs[0].ID)
	if got.Issues[0].Status != domain.IssueOpen || got.QualityScore == nil || *got.QualityScore != 80 {
		t.Errorf("confirmed segment changed: %+v", got)
	}

	if _, err := s.ResolveOpenIssues(ctx, 9999, in, domain.IssueFilter{}, res); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found for a missing segment, got %v", err)
	}
}

func TestStore_CountByStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, f := seedFile(t, s, "a b", "c d e", "f")
	segs, _ := s.ListSegments(ctx, f.ID)
	if _, err := s.ClaimSegment(ctx, segs[0].ID, []domain.SegmentStatus{domain.StatusPending}, domain.StatusConfirmed, nil); err != nil {
		t.Fatal(err)
	}

	counts, err := s.CountByStatus(ctx, f.ID)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	byStatus := map[domain.SegmentStatus]domain.StatusCount{}
	for _, c := range counts {
		byStatus[c.Status] = c
	}
	if c := byStatus[domain.StatusConfirmed]; c.Count != 1 || c.Words != 2 {
		t.Errorf("unexpected confirmed count %+v", c)
	}
	if c := byStatus[domain.StatusPending]; c.Count != 2 || c.Words != 4 {
		t.Errorf("unexpected pending count %+v", c)
	}

	projectCounts, err := s.CountProjectByStatus(ctx, p.ID)
	if err != nil {
		t.Fatalf("CountProjectByStatus failed: %v", err)
	}
	if len(projectCounts) != 2 {
		t.Errorf("expected 2 status groups, got %d", len(projectCounts))
	}
}

func TestStore_LookupMemory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveToMemory(ctx, 1, "  Hello ", "en", "uk", "Привіт", "final"); err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}

	text, found, err := s.LookupMemory(ctx, 1, "Hello", "en", "uk")
	if err != nil {
		t.Errorf("LookupMemory failed: %v", err)
	}
	if !found || text != "Привіт" {
		t.Errorf("expected 'Привіт', got found=%v %q", found, text)
	}

	// Another project does not see it.
	if _, found, _ := s.LookupMemory(ctx, 2, "Hello", "en", "uk"); found {
		t.Error("expected memory to be scoped to the project")
	}
}

func TestStore_LookupMemory_Invalidated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveToMemory(ctx, 1, "Hello", "en", "uk", "Привіт", "final"); err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}
	entries, err := s.ListMemory(ctx, 1)
	if err != nil || len(entries) == 0 {
		t.Fatalf("ListMemory failed: %v (%d entries)", err, len(entries))
	}
	if err := s.InvalidateMemory(ctx, entries[0].ID); err != nil {
		t.Fatalf("InvalidateMemory failed: %v", err)
	}

	text, found, err := s.LookupMemory(ctx, 1, "Hello", "en", "uk")
	if err != nil {
		t.Errorf("LookupMemory failed: %v", err)
	}
	if found || text != "" {
		t.Errorf("expected invalidated entry to be hidden, got found=%v %q", found, text)
	}

	// Saving again re-activates the entry.
	if err := s.SaveToMemory(ctx, 1, "Hello", "en", "uk", "Вітаю", "final"); err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}
	text, found, _ = s.LookupMemory(ctx, 1, "Hello", "en", "uk")
	if !found || text != "Вітаю" {
		t.Errorf("expected refreshed entry, got found=%v %q", found, text)
	}
}

func TestStore_MemoryCandidates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.SaveToMemory(ctx, 1, "Hello world", "en", "uk", "Привіт світ", "final")
	s.SaveToMemory(ctx, 1, "Hi", "en", "uk", "Привіт", "final")
	s.SaveToMemory(ctx, 1, "Hello world", "en", "de", "Hallo Welt", "final")

	got, err := s.MemoryCandidates(ctx, 1, "en", "uk", 8, 14)
	if err != nil {
		t.Fatalf("MemoryCandidates failed: %v", err)
	}
	if len(got) != 1 || got[0].TargetText != "Привіт світ" {
		t.Errorf("unexpected candidates %+v", got)
	}
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.SaveToMemory(ctx, 1, "Hello", "en", "uk", "Привіт", "final")
	s.SaveToMemory(ctx, 1, "World", "en", "uk", "Світ", "final")
	s.LookupMemory(ctx, 1, "Hello", "en", "uk")

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalEntries != 2 || stats.ActiveEntries != 2 || stats.InvalidEntries != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.TotalUsage != 3 {
		t.Errorf("expected total usage 3, got %d", stats.TotalUsage)
	}
}

func TestStore_DeleteAndClearMemory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.SaveToMemory(ctx, 1, "Hello", "en", "uk", "Привіт", "final")
	s.SaveToMemory(ctx, 1, "World", "en", "uk", "Світ", "final")
	s.SaveToMemory(ctx, 2, "Cat", "en", "uk", "Кіт", "final")

	entries, _ := s.ListMemory(ctx, 1)
	if err := s.DeleteMemory(ctx, entries[0].ID); err != nil {
		t.Fatalf("DeleteMemory failed: %v", err)
	}
	n, err := s.ClearMemory(ctx, 1)
	if err != nil {
		t.Fatalf("ClearMemory failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted row, got %d", n)
	}
	rest, _ := s.ListMemory(ctx, 0)
	if len(rest) != 1 || rest[0].ProjectID != 2 {
		t.Errorf("expected only project 2 memory to remain, got %+v", rest)
	}
}

func TestStore_Glossary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddGlossaryTerm(ctx, 1, "cloud", "хмара"); err != nil {
		t.Fatalf("AddGlossaryTerm failed: %v", err)
	}
	if err := s.AddGlossaryTerm(ctx, 1, "cloud", "хмарний сервіс"); err != nil {
		t.Fatalf("AddGlossaryTerm (replace) failed: %v", err)
	}
	s.AddGlossaryTerm(ctx, 2, "disk", "диск")

	terms, err := s.Terms(ctx, 1)
	if err != nil {
		t.Fatalf("Terms failed: %v", err)
	}
	if len(terms) != 1 || terms[0].Target != "хмарний сервіс" {
		t.Errorf("unexpected terms %+v", terms)
	}

	all, _ := s.ListGlossaryTerms(ctx, 0)
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}
	if err := s.DeleteGlossaryTerm(ctx, all[0].ID); err != nil {
		t.Fatalf("DeleteGlossaryTerm failed: %v", err)
	}
	terms, _ = s.Terms(ctx, 1)
	if len(terms) != 0 {
		t.Errorf("expected project 1 glossary to be empty, got %+v", terms)
	}
}

func TestStore_Jobs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fileID := int64(3)

	j := &domain.Job{ID: "job-1", Type: "translate_file", Status: domain.JobQueued, ProjectID: 1, FileID: &fileID, ActorID: 1}
	if err := s.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	j.Status = domain.JobCompleted
	j.Progress = domain.JobProgress{Total: 2, Done: 1, Failed: 1}
	if err := s.UpdateJob(ctx, j); err != nil {
		t.Fatalf("UpdateJob failed: %v", err)
	}
	if err := s.AddJobItem(ctx, &domain.JobItem{JobID: "job-1", SegmentID: 10, Status: "done"}); err != nil {
		t.Fatalf("AddJobItem failed: %v", err)
	}
	if err := s.AddJobItem(ctx, &domain.JobItem{JobID: "job-1", SegmentID: 11, Status: "failed", Error: "boom"}); err != nil {
		t.Fatalf("AddJobItem failed: %v", err)
	}

	got, err := s.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Status != domain.JobCompleted || got.Progress.Failed != 1 || got.FileID == nil || *got.FileID != 3 {
		t.Errorf("unexpected job %+v", got)
	}
	items, err := s.ListJobItems(ctx, "job-1")
	if err != nil {
		t.Fatalf("ListJobItems failed: %v", err)
	}
	if len(items) != 2 || items[1].Error != "boom" {
		t.Errorf("unexpected items %+v", items)
	}

	if _, err := s.GetJob(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestStore_AbandonJobs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for id, st := range map[string]domain.JobStatus{"a": domain.JobRunning, "b": domain.JobQueued, "c": domain.JobCompleted} {
		if err := s.CreateJob(ctx, &domain.Job{ID: id, Type: "translate_file", Status: st, ProjectID: 1, ActorID: 1}); err != nil {
			t.Fatalf("CreateJob failed: %v", err)
		}
	}

	n, err := s.AbandonJobs(ctx, "interrupted")
	if err != nil {
		t.Fatalf("AbandonJobs failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 abandoned jobs, got %d", n)
	}
	a, _ := s.GetJob(ctx, "a")
	if a.Status != domain.JobCanceled || a.Error != "interrupted" {
		t.Errorf("unexpected abandoned job %+v", a)
	}
	c, _ := s.GetJob(ctx, "c")
	if c.Status != domain.JobCompleted {
		t.Errorf("finished job must be left alone, got %s", c.Status)
	}
}

func TestStore_AbandonClaims(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, f := seedFile(t, s, "one", "two", "three")
	segs, _ := s.ListSegments(ctx, f.ID)

	if ok, err := s.ClaimSegment(ctx, segs[0].ID, []domain.SegmentStatus{domain.StatusPending}, domain.StatusTranslating, nil); !ok || err != nil {
		t.Fatalf("ClaimSegment failed: %v %v", ok, err)
	}
	if ok, err := s.ClaimSegment(ctx, segs[1].ID, []domain.SegmentStatus{domain.StatusPending}, domain.StatusReviewing, nil); !ok || err != nil {
		t.Fatalf("ClaimSegment failed: %v %v", ok, err)
	}

	n, files, err := s.AbandonClaims(ctx, "interrupted")
	if err != nil {
		t.Fatalf("AbandonClaims failed: %v", err)
	}
	if n != 2 || len(files) != 1 || files[0] != f.ID {
		t.Errorf("expected 2 segments in file %d, got %d in %v", f.ID, n, files)
	}

	want := []domain.SegmentStatus{domain.StatusTranslationFailed, domain.StatusReviewFailed, domain.StatusPending}
	for i, seg := range segs {
		got, _ := s.GetSegment(ctx, seg.ID)
		if got.Status != want[i] {
			t.Errorf("segment %d: expected %s, got %s", i, want[i], got.Status)
		}
		if i < 2 && (got.ErrorMessage == nil || *got.ErrorMessage != "interrupted") {
			t.Errorf("segment %d: expected error message, got %v", i, got.ErrorMessage)
		}
	}

	n, files, err = s.AbandonClaims(ctx, "interrupted")
	if err != nil || n != 0 || len(files) != 0 {
		t.Errorf("expected no-op rerun, got %d %v %v", n, files, err)
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  Hello  ", "Hello"},
		{"e\u0301", "\u00e9"}, // NFC composition
		{"\t\nHello\t\n", "Hello"},
		{"", ""},
	}

	for _, tt := range tests {
		result := normalizeText(tt.input)
		if result != tt.expected {
			t.Errorf("normalizeText(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
