package bing

import (
	"context"
	"fmt"
	"net/url"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	getter := &fakeGetter{handler: webCorpus(100)}
	client := newTestClient(t, ModeStrict, getter)

	results, next, err := client.Search(context.Background(), "golang", 10, 20, FormatJSON)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	require.Len(t, results, 10)
	assert.Equal(t, "https://example.com/20", results[0].URL)
	assert.Equal(t, "https://api.test/Web?$skip=30", next)

	requests := getter.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "'golang'", requests[0].Query().Get("Query"))
	assert.Equal(t, "json", requests[0].Query().Get("$format"))
}

func TestSearchAll(t *testing.T) {
	type testCase struct {
		Name             string
		Total            int
		Limit            int
		ExpectedResults  int
		ExpectedRequests [][2]string
	}

	testCases := []testCase{
		{
			Name:             "limit reached",
			Total:            1000,
			Limit:            120,
			ExpectedResults:  120,
			ExpectedRequests: [][2]string{{"50", "0"}, {"50", "50"}, {"20", "100"}},
		},
		{
			Name:             "last page",
			Total:            70,
			Limit:            120,
			ExpectedResults:  70,
			ExpectedRequests: [][2]string{{"50", "0"}, {"50", "50"}},
		},
		{
			Name:             "no results",
			Total:            0,
			Limit:            120,
			ExpectedResults:  0,
			ExpectedRequests: [][2]string{{"50", "0"}},
		},
		{
			Name:             "zero limit",
			Total:            1000,
			Limit:            0,
			ExpectedResults:  0,
			ExpectedRequests: [][2]string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			getter := &fakeGetter{handler: webCorpus(tc.Total)}
			client := newTestClient(t, ModeStrict, getter)

			results, err := client.SearchAll(context.Background(), "golang", tc.Limit, FormatJSON)
			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			require.Len(t, results, tc.ExpectedResults)

			for i, r := range results {
				assert.Equal(t, fmt.Sprintf("https://example.com/%d", i), r.URL)
			}

			requests := getter.Requests()
			require.Len(t, requests, len(tc.ExpectedRequests))

			for i, r := range requests {
				assert.Equal(t, tc.ExpectedRequests[i][0], r.Query().Get("$top"), "request #%d $top", i)
				assert.Equal(t, tc.ExpectedRequests[i][1], r.Query().Get("$skip"), "request #%d $skip", i)
			}
		})
	}
}

func TestSearchAllTruncatesOversizedPages(t *testing.T) {
	getter := &fakeGetter{handler: func(u *url.URL) (int, string, error) {
		items := make([]map[string]any, 0, 50)
		for i := 0; i < 50; i++ {
			items = append(items, rawResult(fmt.Sprintf("https://example.com/%d", i)))
		}

		return 200, responseBody(items, ptr("https://api.test/Web?next")), nil
	}}

	client := newTestClient(t, ModeStrict, getter)

	results, err := client.SearchAll(context.Background(), "golang", 30, FormatJSON)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Len(t, results, 30)
	assert.Len(t, getter.Requests(), 1)
}

func TestSearchAllNegativeLimit(t *testing.T) {
	client := newTestClient(t, ModeStrict, &fakeGetter{handler: webCorpus(10)})

	_, err := client.SearchAll(context.Background(), "golang", -1, FormatJSON)
	assert.True(t, errors.Is(err, ErrNegativeBound), "unexpected error: %v", err)
}

func TestSearchAllSafeModeStopsOnDegradedPage(t *testing.T) {
	calls := 0

	getter := &fakeGetter{handler: func(u *url.URL) (int, string, error) {
		calls++
		if calls == 2 {
			return 502, htmlErrorPage, nil
		}

		return webCorpus(1000)(u)
	}}

	sleeper := &sleepRecorder{}
	client := newTestClient(t, ModeSafe, getter, WithSleep(sleeper.Sleep))

	results, err := client.SearchAll(context.Background(), "golang", 200, FormatJSON)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Len(t, results, 50)
	assert.Len(t, sleeper.pauses, 1)
}
