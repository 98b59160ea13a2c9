package chat

import (
	"testing"

	"github.com/estlink/crmbridge-backend/internal/vectorsync"
)

func TestParseIntentGate(t *testing.T) {
	tests := []struct {
		question string
		data     bool
	}{
		{"what's the weather like today", false},
		{"tell me a joke", false},
		{"hi", false},
		{"deal?", false},
		{"how many contacts do we have", true},
		{"who owns the Acme deal", true},
		{"show me recent call notes", true},
	}
	for _, tt := range tests {
		got := ParseIntent(tt.question)
		if got.DataQuery != tt.data {
			t.Errorf("ParseIntent(%q).DataQuery = %v, want %v", tt.question, got.DataQuery, tt.data)
		}
	}
}

func TestParseIntentCount(t *testing.T) {
	got := ParseIntent("how many closed sales deals does Ann have?")
	if !got.Count {
		t.Fatal("count not detected")
	}
	if !got.Closed {
		t.Fatal("closed not detected")
	}
	if len(got.DocTypes) != 1 || got.DocTypes[0] != vectorsync.DocTypeDealSale {
		t.Fatalf("doc types = %v, want sales deals only", got.DocTypes)
	}
}

func TestParseIntentDealSpansBothPipelines(t *testing.T) {
	got := ParseIntent("how many deals are in the pipeline?")
	if len(got.DocTypes) != 2 {
		t.Fatalf("doc types = %v, want both deal types", got.DocTypes)
	}
}

func TestParseIntentEntityDetection(t *testing.T) {
	got := ParseIntent("count of contacts and companies")
	want := map[string]bool{
		vectorsync.DocTypeContact: true,
		vectorsync.DocTypeCompany: true,
	}
	if len(got.DocTypes) != len(want) {
		t.Fatalf("doc types = %v", got.DocTypes)
	}
	for _, dt := range got.DocTypes {
		if !want[dt] {
			t.Fatalf("unexpected doc type %s", dt)
		}
	}
}
