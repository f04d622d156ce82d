package subscriptions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subsweep/internal/model"
)

type fakeRemover struct {
	removed []string
	err     error
}

func (f *fakeRemover) RemoveSubscriptions(_ context.Context, ids []string) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, ids...)
	return nil
}

type fakeTrasher struct {
	calls [][]string
	fail  map[string]error
}

func (f *fakeTrasher) TrashMessages(_ context.Context, ids []string) error {
	f.calls = append(f.calls, ids)
	if err, ok := f.fail[ids[0]]; ok {
		return err
	}
	return nil
}

func TestApply_OpenLinks(t *testing.T) {
	var opened []string
	open := func(link string) error {
		if link == "unsubscribe@shop.example" {
			return errors.New("no mail handler")
		}
		opened = append(opened, link)
		return nil
	}
	rm := &fakeRemover{}
	a := NewAction(open, nil, rm, nil)

	out, err := a.Apply(context.Background(), sampleRecords(), []string{"n1", "s1", "v1"}, ModeOpen)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://news.example/unsub"}, opened)
	assert.Equal(t, []string{"n1"}, out.Acted)
	assert.Equal(t, []string{"s1"}, out.NoLink)
	assert.Contains(t, out.Failed, "v1")
	assert.Equal(t, []string{"n1"}, rm.removed)
}

func TestApply_NothingActedSkipsRemove(t *testing.T) {
	rm := &fakeRemover{err: errors.New("must not be called")}
	a := NewAction(func(string) error { return nil }, nil, rm, nil)

	out, err := a.Apply(context.Background(), sampleRecords(), []string{"s1"}, ModeOpen)
	require.NoError(t, err)
	assert.Empty(t, out.Acted)
	assert.Equal(t, []string{"s1"}, out.NoLink)
}

func TestApply_TrashAllRelated(t *testing.T) {
	recs := []model.ConsolidatedRecord{
		{ID: "m1", RelatedEmails: []model.RelatedEmail{{ID: "m1"}, {ID: "m3"}}},
		{ID: "m2", RelatedEmails: []model.RelatedEmail{{ID: "m2"}}},
		{ID: "m4", RelatedEmails: []model.RelatedEmail{{ID: "m4"}}},
	}
	tr := &fakeTrasher{fail: map[string]error{"m2": errors.New("boom")}}
	rm := &fakeRemover{}
	a := NewAction(nil, tr, rm, nil)

	out, err := a.Apply(context.Background(), recs, []string{"m1", "m2"}, ModeTrash)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"m1", "m3"}, {"m2"}}, tr.calls)
	assert.Equal(t, []string{"m1"}, out.Acted)
	assert.Contains(t, out.Failed, "m2")
	assert.Equal(t, []string{"m1"}, rm.removed)
}

func TestApply_TrashStopsOnAuthError(t *testing.T) {
	recs := []model.ConsolidatedRecord{{ID: "a"}, {ID: "b"}}
	tr := &fakeTrasher{fail: map[string]error{"a": &model.AuthError{Err: errors.New("401")}}}
	a := NewAction(nil, tr, &fakeRemover{}, nil)

	out, err := a.Apply(context.Background(), recs, []string{"a", "b"}, ModeTrash)
	require.NoError(t, err)
	assert.Len(t, tr.calls, 1)
	assert.Empty(t, out.Acted)
}

func TestApply_TrashWithoutClient(t *testing.T) {
	a := NewAction(nil, nil, &fakeRemover{}, nil)
	_, err := a.Apply(context.Background(), sampleRecords(), []string{"n1"}, ModeTrash)
	assert.Error(t, err)
}

func TestApply_RemoveFailureIsPersistenceError(t *testing.T) {
	rm := &fakeRemover{err: errors.New("disk full")}
	a := NewAction(func(string) error { return nil }, nil, rm, nil)

	out, err := a.Apply(context.Background(), sampleRecords(), []string{"n1"}, ModeOpen)
	var perr *model.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, []string{"n1"}, out.Acted)
}
