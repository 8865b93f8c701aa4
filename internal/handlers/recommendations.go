package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rozgarportal/api/internal/analytics"
	"github.com/rozgarportal/api/internal/db"
)

// RecommendationHandlers serves personalized job suggestions for seekers
type RecommendationHandlers struct {
	queries *db.Queries
	tracker *analytics.Tracker
}

// NewRecommendationHandlers creates a new recommendation handlers instance
func NewRecommendationHandlers(queries *db.Queries, tracker *analytics.Tracker) *RecommendationHandlers {
	return &RecommendationHandlers{queries: queries, tracker: tracker}
}

// Scoring weights. Profile matching dominates the ranking.
const (
	skillsWeight   = 0.6
	locationWeight = 0.3
	recencyWeight  = 0.1

	// ListJobs caps page size at 100
	recommendationPoolSize = 100
	maxRecommendations     = 50
)

// JobRecommendation is a scored job suggestion
type JobRecommendation struct {
	Job        db.Job `json:"job"`
	MatchScore int    `json:"match_score"` // 0-100
	Reason     string `json:"reason"`
	Confidence string `json:"confidence"` // high, medium, low

	score float64
}

// List returns ranked job recommendations for the calling job seeker.
// Jobs the seeker already applied to are excluded.
func (h *RecommendationHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := callerIdentity(r)
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, fmt.Errorf("unauthorized"), nil)
		return
	}
	if role != string(db.RoleJobSeeker) {
		WriteError(w, r, http.StatusForbidden, fmt.Errorf("job recommendations are only available for job seekers"), nil)
		return
	}

	limit := queryInt(r.URL.Query().Get("limit"), 10)
	if limit < 1 {
		limit = 1
	}
	if limit > maxRecommendations {
		limit = maxRecommendations
	}

	user, err := h.queries.GetUserByID(r.Context(), userID)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, fmt.Errorf("user not found"), nil)
		return
	}

	jobs, err := h.queries.ListJobs(r.Context(), db.JobFilter{
		OnlyLive: true,
		Limit:    recommendationPoolSize,
	})
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to load jobs"), nil)
		return
	}

	applied, err := h.appliedJobIDs(r, userID)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to load applications"), nil)
		return
	}

	recommendations := make([]JobRecommendation, 0, len(jobs))
	for i := range jobs {
		job := jobs[i]
		if job.EmployerID == userID {
			continue
		}
		if _, ok := applied[job.ID]; ok {
			continue
		}
		recommendations = append(recommendations, scoreJob(user, job, time.Now()))
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		if recommendations[i].score != recommendations[j].score {
			return recommendations[i].score > recommendations[j].score
		}
		return recommendations[i].Job.CreatedAt.After(recommendations[j].Job.CreatedAt)
	})
	if len(recommendations) > limit {
		recommendations = recommendations[:limit]
	}

	h.tracker.TrackHTTP("job_recommendations_viewed", userID, map[string]interface{}{
		"recommendations_count": len(recommendations),
	}, r)

	WriteSuccess(w, recommendations, http.StatusOK)
}

func (h *RecommendationHandlers) appliedJobIDs(r *http.Request, userID string) (map[string]struct{}, error) {
	apps, err := h.queries.ListApplicationsByUser(r.Context(), userID, recommendationPoolSize, 0)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(apps))
	for _, app := range apps {
		ids[app.JobID] = struct{}{}
	}
	return ids, nil
}

/* scoreJob rates a job against a seeker's profile. Skill terms are
   matched against the posting text and the seeker's city against the job
   location; postings from the last week get a freshness bonus. */
func scoreJob(user *db.User, job db.Job, now time.Time) JobRecommendation {
	skillScore := skillMatch(user.Skills, job)

	var locationScore float64
	switch {
	case user.City != "" && strings.EqualFold(user.City, job.LocationCity):
		locationScore = 1.0
	case job.RemoteAllowed:
		locationScore = 0.8
	}

	var recencyScore float64
	if age := now.Sub(job.CreatedAt); age < 7*24*time.Hour {
		recencyScore = 1.0 - age.Hours()/(7*24)
	}

	score := skillScore*skillsWeight + locationScore*locationWeight + recencyScore*recencyWeight

	var confidence string
	switch {
	case score > 0.7:
		confidence = "high"
	case score > 0.4:
		confidence = "medium"
	default:
		confidence = "low"
	}

	return JobRecommendation{
		Job:        job,
		MatchScore: int(score*100 + 0.5),
		Reason:     recommendationReason(skillScore, locationScore),
		Confidence: confidence,
		score:      score,
	}
}

// skillMatch returns the fraction of the seeker's skills that appear in
// the posting's title, description, requirements or category.
func skillMatch(skills []string, job db.Job) float64 {
	if len(skills) == 0 {
		return 0
	}
	haystack := strings.ToLower(job.Title + " " + job.Description + " " + job.Requirements + " " + job.Category)
	matched := 0
	for _, skill := range skills {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill != "" && strings.Contains(haystack, skill) {
			matched++
		}
	}
	return float64(matched) / float64(len(skills))
}

func recommendationReason(skillScore, locationScore float64) string {
	var reasons []string
	switch {
	case skillScore > 0.8:
		reasons = append(reasons, "excellent skill match")
	case skillScore > 0.5:
		reasons = append(reasons, "good skill alignment")
	}
	if locationScore >= 1.0 {
		reasons = append(reasons, "preferred location")
	} else if locationScore > 0 {
		reasons = append(reasons, "remote friendly")
	}
	if len(reasons) == 0 {
		return "potential career opportunity"
	}
	return strings.Join(reasons, ", ")
}
