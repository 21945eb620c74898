package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		name    string
		from    PublicationStatus
		to      PublicationStatus
		allowed bool
	}{
		{"draft to ready", StatusDraft, StatusReady, true},
		{"draft to scheduled", StatusDraft, StatusScheduled, true},
		{"ready claimed by worker", StatusReady, StatusProcessing, true},
		{"ready gains a dispatch time", StatusReady, StatusScheduled, true},
		{"scheduled published early", StatusScheduled, StatusReady, true},
		{"scheduled time update", StatusScheduled, StatusScheduled, true},
		{"scheduled claimed by worker", StatusScheduled, StatusProcessing, true},
		{"scheduled expires", StatusScheduled, StatusExpired, true},
		{"partial re-enters processing", StatusPartial, StatusProcessing, true},
		{"draft cannot skip to processing", StatusDraft, StatusProcessing, false},
		{"published is terminal", StatusPublished, StatusProcessing, false},
		{"expired is terminal", StatusExpired, StatusScheduled, false},
		{"processing cannot be rescheduled", StatusProcessing, StatusScheduled, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestAggregateStatus(t *testing.T) {
	pub := Post{Status: PostStatusPublished}
	failed := Post{Status: PostStatusFailed}

	assert.Equal(t, StatusPublished, AggregateStatus([]Post{pub, pub}))
	assert.Equal(t, StatusFailed, AggregateStatus([]Post{failed, failed}))
	assert.Equal(t, StatusPartial, AggregateStatus([]Post{pub, failed}))
	assert.Equal(t, StatusFailed, AggregateStatus(nil))
}
