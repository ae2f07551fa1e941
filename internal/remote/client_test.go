package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyquest/progress-engine/internal/domain"
)

func TestPostEvent(t *testing.T) {
	t.Run("accepted event returns receipt with unlock echo", func(t *testing.T) {
		var gotBody map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/achievements/progress", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true,"data":{"newlyCompletedAchievements":["first_quiz","streak_3"]}}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "test-key", time.Second)
		ev := domain.NewEvent(domain.EventQuizCompleted, 8, domain.Metadata{"score": 80})

		receipt, err := c.PostEvent(context.Background(), ev)

		require.NoError(t, err)
		assert.True(t, receipt.Accepted)
		assert.Equal(t, []string{"first_quiz", "streak_3"}, receipt.NewlyCompleted)

		assert.Equal(t, ev.ID, gotBody["eventId"], "client-generated event ID must be on the wire for dedup")
		assert.Equal(t, "quiz_completed", gotBody["eventType"])
		assert.Equal(t, float64(8), gotBody["eventValue"])
	})

	t.Run("accepts object-shaped unlock echo", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":true,"data":{"newlyCompletedAchievements":[{"name":"scholar"},{"title":"Ten Quizzes"}]}}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "", time.Second)
		receipt, err := c.PostEvent(context.Background(), domain.NewEvent(domain.EventStudyTime, 5, nil))

		require.NoError(t, err)
		assert.Equal(t, []string{"scholar", "Ten Quizzes"}, receipt.NewlyCompleted)
	})

	t.Run("400 is an authoritative rejection, not transport", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"unknown event type"}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "", time.Second)
		_, err := c.PostEvent(context.Background(), domain.NewEvent(domain.EventQuizScore, 1, nil))

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrRejected)
		assert.NotErrorIs(t, err, domain.ErrTransport)

		var rejection *RejectionError
		require.ErrorAs(t, err, &rejection)
		assert.Equal(t, http.StatusBadRequest, rejection.StatusCode)
		assert.Contains(t, rejection.Message, "unknown event type")
	})

	t.Run("5xx is transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "", time.Second)
		_, err := c.PostEvent(context.Background(), domain.NewEvent(domain.EventStudyTime, 1, nil))

		assert.ErrorIs(t, err, domain.ErrTransport)
	})

	t.Run("429 is transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "", time.Second)
		_, err := c.PostEvent(context.Background(), domain.NewEvent(domain.EventStudyTime, 1, nil))

		assert.ErrorIs(t, err, domain.ErrTransport, "throttling must be retried via the queue")
	})

	t.Run("timeout is transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "", 20*time.Millisecond)
		_, err := c.PostEvent(context.Background(), domain.NewEvent(domain.EventStudyTime, 1, nil))

		assert.ErrorIs(t, err, domain.ErrTransport)
	})

	t.Run("unreachable host is transport failure", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:1", "", 200*time.Millisecond)
		_, err := c.PostEvent(context.Background(), domain.NewEvent(domain.EventStudyTime, 1, nil))

		assert.ErrorIs(t, err, domain.ErrTransport)
	})
}

func TestGetSummary(t *testing.T) {
	t.Run("returns raw payload untouched", func(t *testing.T) {
		payload := `{"data":{"summary":{"total_xp":2450}}}`
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/achievements/user/user-1", r.URL.Path)
			_, _ = w.Write([]byte(payload))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "", time.Second)
		raw, err := c.GetSummary(context.Background(), "user-1")

		require.NoError(t, err)
		assert.JSONEq(t, payload, string(raw), "client must not reshape the payload")
	})

	t.Run("sends API key header when configured", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "secret", r.Header.Get(HeaderAPIKey))
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "secret", time.Second)
		_, err := c.GetSummary(context.Background(), "user-1")
		require.NoError(t, err)
	})
}

func TestPostStreak(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/achievements/streak", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	err := c.PostStreak(context.Background(), domain.StreakUpdate{
		ActivityType: "quiz",
		ActivityDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		TimeMinutes:  15,
		Points:       30,
		XP:           80,
	})

	require.NoError(t, err)
	assert.Equal(t, "quiz", gotBody["activityType"])
	assert.Equal(t, "2025-03-10T00:00:00Z", gotBody["activityDate"])
	assert.Equal(t, float64(15), gotBody["timeMinutes"])
	assert.Equal(t, float64(80), gotBody["xp"])
}

func TestPostStreakFreeze(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/achievements/streak/freeze", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	require.NoError(t, c.PostStreakFreeze(context.Background()))
	assert.True(t, called)
}
