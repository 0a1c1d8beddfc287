package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/scoutlab/scout/internal/llm"
	"github.com/scoutlab/scout/internal/model"
)

// fakeProvider returns a scripted response or error
type fakeProvider struct {
	text string
	err  error
}

func (f *fakeProvider) Name() string                        { return "fake" }
func (f *fakeProvider) IsAvailable(context.Context) bool    { return true }
func (f *fakeProvider) Generate(_ context.Context, _ llm.Request) (*llm.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Text: f.text, Model: "fake"}, nil
}

func smallBounds() model.BoundsConfig {
	return model.BoundsConfig{
		MaxIterations:   3,
		MaxSubQuestions: 5,
		MaxFollowUps:    3,
		MaxChunks:       30,
		ProviderTimeout: 1,
	}
}

func TestPlanInitial_ParsesAndCaps(t *testing.T) {
	provider := &fakeProvider{
		text: `Here you go:
["q one", "q two", "q three", "q four", "q five", "q six", "q seven"]`,
	}
	p := New(provider, smallBounds(), nil)

	questions, err := p.PlanInitial(context.Background(), "big topic")
	if err != nil {
		t.Fatalf("PlanInitial: %v", err)
	}
	if len(questions) != 5 {
		t.Fatalf("expected cap at 5 sub-questions, got %d", len(questions))
	}
	if questions[0].Text != "q one" {
		t.Errorf("order not preserved: %q", questions[0].Text)
	}
	for _, q := range questions {
		if q.OriginIteration != 1 {
			t.Errorf("origin iteration = %d", q.OriginIteration)
		}
		if q.ID == "" {
			t.Error("sub-question has no id")
		}
	}
}

func TestPlanInitial_DeduplicatesCaseInsensitive(t *testing.T) {
	provider := &fakeProvider{text: `["Alpha", "alpha", "Beta", ""]`}
	p := New(provider, smallBounds(), nil)

	questions, err := p.PlanInitial(context.Background(), "topic")
	if err != nil {
		t.Fatalf("PlanInitial: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 unique sub-questions, got %d", len(questions))
	}
}

func TestPlanInitial_FallsBackToQuery(t *testing.T) {
	tests := []struct {
		name     string
		provider llm.Provider
	}{
		{"nil provider", nil},
		{"generation error", &fakeProvider{err: errors.New("backend down")}},
		{"unparseable output", &fakeProvider{text: "I cannot help with that."}},
		{"empty array", &fakeProvider{text: "[]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.provider, smallBounds(), nil)
			questions, err := p.PlanInitial(context.Background(), "the query itself")
			if err != nil {
				t.Fatalf("PlanInitial: %v", err)
			}
			if len(questions) != 1 || questions[0].Text != "the query itself" {
				t.Errorf("expected single fallback sub-question, got %v", questions)
			}
		})
	}
}

func TestPlanInitial_EmptyQueryIsFatal(t *testing.T) {
	p := New(nil, smallBounds(), nil)

	_, err := p.PlanInitial(context.Background(), "   ")
	if err == nil {
		t.Fatal("expected PlanningError")
	}
	var perr *PlanningError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *PlanningError, got %T", err)
	}
}

func TestPlanFollowUps_CapsAndFilters(t *testing.T) {
	p := New(nil, smallBounds(), nil)

	critique := model.CritiqueResult{
		FollowUps: []model.SubQuestion{
			{ID: "a", Text: "first"},
			{ID: "b", Text: "  "},
			{ID: "c", Text: "second"},
			{ID: "d", Text: "third"},
			{ID: "e", Text: "fourth"},
		},
	}

	questions := p.PlanFollowUps(critique, 2)
	if len(questions) != 3 {
		t.Fatalf("expected cap at 3 follow-ups, got %d", len(questions))
	}
	for _, q := range questions {
		if q.OriginIteration != 2 {
			t.Errorf("origin iteration = %d", q.OriginIteration)
		}
	}
}

func TestPlanFollowUps_EmptyIsNotAnError(t *testing.T) {
	p := New(nil, smallBounds(), nil)

	if questions := p.PlanFollowUps(model.CritiqueResult{}, 2); len(questions) != 0 {
		t.Errorf("expected no follow-ups, got %v", questions)
	}
}
