package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisResult_UnmarshalFullPayload(t *testing.T) {
	payload := `{
		"match_score": 78.6,
		"missing_keywords": ["Kubernetes", "Terraform"],
		"extra_keywords_to_add": ["CI/CD"],
		"suggested_improvements": ["Quantify impact"],
		"career_recommendations": {
			"best_match": {"title": "Platform Engineer", "reason": "Infra depth"},
			"other_careers": [{"title": "SRE", "reason": "On-call experience"}]
		}
	}`

	var r AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(payload), &r))

	assert.Equal(t, 79, r.MatchScore)
	assert.Equal(t, []string{"Kubernetes", "Terraform"}, r.MissingKeywords)
	assert.Equal(t, []string{"CI/CD"}, r.ExtraKeywordsToAdd)
	assert.Equal(t, []string{"Quantify impact"}, r.SuggestedImprovements)
	assert.Equal(t, "Platform Engineer", r.BestMatchTitle())
	require.Len(t, r.CareerRecommendations.OtherCareers, 1)
	assert.Equal(t, "SRE", r.CareerRecommendations.OtherCareers[0].Title)
}

func TestAnalysisResult_SentinelsBecomeEmpty(t *testing.T) {
	payload := `{
		"match_score": 55,
		"missing_keywords": ["None"],
		"extra_keywords_to_add": ["None"],
		"suggested_improvements": ["No issues found"],
		"career_recommendations": {}
	}`

	var r AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(payload), &r))

	assert.Empty(t, r.MissingKeywords)
	assert.NotNil(t, r.MissingKeywords)
	assert.Empty(t, r.ExtraKeywordsToAdd)
	assert.Empty(t, r.SuggestedImprovements)
	assert.Nil(t, r.CareerRecommendations.BestMatch)
	assert.Equal(t, "", r.BestMatchTitle())
	assert.NotNil(t, r.CareerRecommendations.OtherCareers)
}

func TestAnalysisResult_StructuredImprovements(t *testing.T) {
	payload := `{
		"match_score": 60,
		"suggested_improvements": [
			{"issue": "Summary", "suggestion": "Lead with outcomes"},
			{"issue": "Skills", "suggestion": "Group by domain"}
		]
	}`

	var r AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(payload), &r))

	assert.Equal(t, []string{"Summary: Lead with outcomes", "Skills: Group by domain"}, r.SuggestedImprovements)
}

func TestAnalysisResult_BlankBestMatchIsAbsent(t *testing.T) {
	payload := `{"match_score": 40, "career_recommendations": {"best_match": {"title": "  ", "reason": ""}}}`

	var r AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(payload), &r))
	assert.Nil(t, r.CareerRecommendations.BestMatch)
}

func TestAnalysisResult_RejectsOutOfRangeScore(t *testing.T) {
	for _, payload := range []string{`{"match_score": 101}`, `{"match_score": -3}`} {
		var r AnalysisResult
		assert.Error(t, json.Unmarshal([]byte(payload), &r), payload)
	}
}

func TestAnalysisResult_NilReceiverBestMatch(t *testing.T) {
	var r *AnalysisResult
	assert.Equal(t, "", r.BestMatchTitle())
}
