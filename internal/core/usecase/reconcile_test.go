package usecase

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/kirillkom/document-triage/internal/core/domain"
)

var testTaxonomy = []domain.TaxonomyEntry{
	{ID: "a", Name: "Report", Category: "business"},
	{ID: "b", Name: "Memo", Category: "business"},
}

func testClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestReconcilePrefersExplicitTypeID(t *testing.T) {
	raw := `{"document_type_id":"a","document_type":"Something Else","title":"Q1"}`
	out := Reconcile(raw, testTaxonomy, testClock())
	if out.Degraded {
		t.Fatalf("expected resolved outcome")
	}
	if out.Result.TypeID != "a" {
		t.Fatalf("expected type id a, got %q", out.Result.TypeID)
	}
	if out.Result.TypeName != "Report" {
		t.Fatalf("expected verified name Report, got %q", out.Result.TypeName)
	}
}

func TestReconcileAcceptsUnverifiableTypeID(t *testing.T) {
	raw := `{"document_type_id":"zzz","document_type":"Mystery"}`
	out := Reconcile(raw, testTaxonomy, testClock())
	if out.Result.TypeID != "zzz" {
		t.Fatalf("stale-snapshot id must be accepted, got %q", out.Result.TypeID)
	}
	if TypeVerified(testTaxonomy, out.Result.TypeID) {
		t.Fatalf("expected unverified type id")
	}
}

func TestReconcileExactNameMatchIsCaseInsensitive(t *testing.T) {
	raw := `{"document_type":"report","title":"Q1"}`
	out := Reconcile(raw, testTaxonomy, testClock())
	if out.Result.TypeID != "a" {
		t.Fatalf("expected exact match to a, got %q", out.Result.TypeID)
	}
}

func TestReconcileSubstringMatchEitherDirection(t *testing.T) {
	cases := []string{"Executive Report Draft", "repo"}
	for _, declared := range cases {
		raw := fmt.Sprintf(`{"document_type":%q}`, declared)
		out := Reconcile(raw, testTaxonomy, testClock())
		if out.Result.TypeID != "a" {
			t.Fatalf("declared %q: expected substring match to a, got %q", declared, out.Result.TypeID)
		}
	}
}

func TestReconcileFallsBackToFirstTaxonomyEntry(t *testing.T) {
	raw := `{"document_type":"Unrelated Thing"}`
	out := Reconcile(raw, testTaxonomy, testClock())
	if out.Result.TypeID != "a" {
		t.Fatalf("expected first-entry fallback a, got %q", out.Result.TypeID)
	}
	if out.Degraded {
		t.Fatalf("fallback type is not a degraded outcome")
	}
}

func TestReconcileDegradedWhenNoJSONObject(t *testing.T) {
	raw := "I could not classify this document, sorry."
	out := Reconcile(raw, testTaxonomy, testClock())
	if !out.Degraded {
		t.Fatalf("expected degraded outcome")
	}
	if out.Result.TypeID != "" {
		t.Fatalf("degraded result must not carry a type id, got %q", out.Result.TypeID)
	}
	if out.Result.RawResponse != raw {
		t.Fatalf("raw response must be retained verbatim")
	}
	if out.Result.Tags == nil || len(out.Result.Tags) != 0 {
		t.Fatalf("expected empty tag list, got %v", out.Result.Tags)
	}
	want := domain.DefaultQualityScores()
	if out.Result.Quality != want {
		t.Fatalf("expected default quality sub-object, got %+v", out.Result.Quality)
	}
}

func TestReconcileDegradedWhenBracesButInvalidJSON(t *testing.T) {
	out := Reconcile("prefix {not json at all} suffix", testTaxonomy, testClock())
	if !out.Degraded {
		t.Fatalf("expected degraded outcome for invalid json")
	}
}

func TestReconcileClampsQualityScore(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{`{"document_type":"Report","confidence":-0.5}`, 0},
		{`{"document_type":"Report","confidence":1.7}`, 1},
		{`{"document_type":"Report","confidence":0.42}`, 0.42},
		{`{"document_type":"Report","confidence":"0.9"}`, 0.9},
		{`{"document_type":"Report","confidence":"high"}`, 0.7},
		{`{"document_type":"Report"}`, 0.7},
	}
	for _, tc := range cases {
		out := Reconcile(tc.raw, testTaxonomy, testClock())
		if out.Result.QualityScore != tc.want {
			t.Fatalf("raw %s: expected score %v, got %v", tc.raw, tc.want, out.Result.QualityScore)
		}
		if out.Result.QualityScore < 0 || out.Result.QualityScore > 1 {
			t.Fatalf("score out of range: %v", out.Result.QualityScore)
		}
	}
}

func TestReconcileWrapsScalarTag(t *testing.T) {
	raw := `{"document_type":"Report","tags":"finance"}`
	out := Reconcile(raw, testTaxonomy, testClock())
	if !reflect.DeepEqual(out.Result.Tags, []string{"finance"}) {
		t.Fatalf("expected wrapped scalar tag, got %v", out.Result.Tags)
	}
	if out.Result.TagsDerived {
		t.Fatalf("explicit tags must not be flagged derived")
	}
}

func TestReconcileDerivesTagsFromTitle(t *testing.T) {
	raw := `{"document_type":"Report","title":"Annual Revenue Report for the Board, 2025"}`
	out := Reconcile(raw, testTaxonomy, testClock())
	want := []string{"annual", "revenue", "report"}
	if !reflect.DeepEqual(out.Result.Tags, want) {
		t.Fatalf("expected derived tags %v, got %v", want, out.Result.Tags)
	}
	if !out.Result.TagsDerived {
		t.Fatalf("derived tags must be flagged")
	}
}

func TestReconcileUsesTopicsWhenTagsAbsent(t *testing.T) {
	raw := `{"document_type":"Report","topics":["ops","budget"]}`
	out := Reconcile(raw, testTaxonomy, testClock())
	if !reflect.DeepEqual(out.Result.Tags, []string{"ops", "budget"}) {
		t.Fatalf("expected topics as tags, got %v", out.Result.Tags)
	}
}

func TestReconcileStampsProcessedAt(t *testing.T) {
	out := Reconcile(`{"document_type":"Report"}`, testTaxonomy, testClock())
	if !out.Result.ProcessedAt.Equal(testClock()) {
		t.Fatalf("expected clock stamp, got %v", out.Result.ProcessedAt)
	}

	out = Reconcile(`{"document_type":"Report","processed_at":"2026-02-01T10:00:00Z"}`, testTaxonomy, testClock())
	want := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	if !out.Result.ProcessedAt.Equal(want) {
		t.Fatalf("expected oracle-supplied stamp, got %v", out.Result.ProcessedAt)
	}
}

func TestReconcileIsDeterministic(t *testing.T) {
	raw := `{"document_type":"report","title":"Quarterly Numbers","confidence":0.8,"tags":["q1"]}`
	first := Reconcile(raw, testTaxonomy, testClock())
	second := Reconcile(raw, testTaxonomy, testClock())
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reconcile must be pure: %+v vs %+v", first, second)
	}
}
