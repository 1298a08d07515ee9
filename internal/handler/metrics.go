package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rootStoriesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alterstory_root_stories_created_total",
		Help: "Total number of created root stories.",
	})

	continuationAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alterstory_continuation_attempts_total",
			Help: "Total number of continuation attempts by result.",
		},
		[]string{"result"},
	)

	votesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alterstory_votes_total",
			Help: "Total number of vote operations by action.",
		},
		[]string{"action"},
	)

	commentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alterstory_comments_total",
			Help: "Total number of comment operations by action.",
		},
		[]string{"action"},
	)
)
