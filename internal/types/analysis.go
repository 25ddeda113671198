package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Sentinel entries the analysis service uses in place of an empty list.
const (
	noneSentinel       = "None"
	noIssuesSentinel   = "No issues found"
	improvementJoinSep = ": "
)

// Career is a recommended role with the reason it was suggested.
type Career struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// CareerRecommendations groups the best career match with alternatives.
type CareerRecommendations struct {
	BestMatch    *Career  `json:"best_match,omitempty"`
	OtherCareers []Career `json:"other_careers"`
}

// AnalysisResult is the output of matching one resume against one job description.
type AnalysisResult struct {
	MatchScore            int                   `json:"match_score"`
	MissingKeywords       []string              `json:"missing_keywords"`
	ExtraKeywordsToAdd    []string              `json:"extra_keywords_to_add"`
	SuggestedImprovements []string              `json:"suggested_improvements"`
	CareerRecommendations CareerRecommendations `json:"career_recommendations"`
}

// BestMatchTitle returns the best-match career title, or "" when absent.
func (r *AnalysisResult) BestMatchTitle() string {
	if r == nil || r.CareerRecommendations.BestMatch == nil {
		return ""
	}
	return strings.TrimSpace(r.CareerRecommendations.BestMatch.Title)
}

// wireAnalysis mirrors the loosely-typed payload returned by /analyze.
type wireAnalysis struct {
	MatchScore            float64          `json:"match_score"`
	MissingKeywords       []string         `json:"missing_keywords"`
	ExtraKeywordsToAdd    []string         `json:"extra_keywords_to_add"`
	SuggestedImprovements []json.RawMessage `json:"suggested_improvements"`
	CareerRecommendations struct {
		BestMatch    *Career  `json:"best_match"`
		OtherCareers []Career `json:"other_careers"`
	} `json:"career_recommendations"`
}

type wireImprovement struct {
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
}

// UnmarshalJSON decodes the service payload, dropping sentinel lists and
// flattening structured improvements into "issue: suggestion" lines.
func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	var w wireAnalysis
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	score := int(math.Round(w.MatchScore))
	if score < 0 || score > 100 {
		return fmt.Errorf("match_score out of range: %v", w.MatchScore)
	}

	improvements, err := decodeImprovements(w.SuggestedImprovements)
	if err != nil {
		return err
	}

	best := w.CareerRecommendations.BestMatch
	if best != nil && strings.TrimSpace(best.Title) == "" {
		best = nil
	}

	*r = AnalysisResult{
		MatchScore:            score,
		MissingKeywords:       dropSentinel(w.MissingKeywords, noneSentinel),
		ExtraKeywordsToAdd:    dropSentinel(w.ExtraKeywordsToAdd, noneSentinel),
		SuggestedImprovements: improvements,
		CareerRecommendations: CareerRecommendations{
			BestMatch:    best,
			OtherCareers: nonNil(w.CareerRecommendations.OtherCareers),
		},
	}
	return nil
}

func decodeImprovements(raw []json.RawMessage) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var imp wireImprovement
		if err := json.Unmarshal(item, &imp); err != nil {
			return nil, fmt.Errorf("unrecognized suggested_improvements entry: %s", string(item))
		}
		out = append(out, imp.Issue+improvementJoinSep+imp.Suggestion)
	}
	return dropSentinel(out, noIssuesSentinel), nil
}

// dropSentinel returns an empty list when the first entry is the sentinel.
func dropSentinel(list []string, sentinel string) []string {
	if len(list) > 0 && list[0] == sentinel {
		return []string{}
	}
	return nonNil(list)
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}

// ExtractedText is the upload stage output consumed by the analyze stage.
type ExtractedText struct {
	ResumeText  string `json:"resume_text"`
	JobDescText string `json:"job_desc_text"`
}

// ApplyOption is one place a listing can be applied to.
type ApplyOption struct {
	Publisher string `json:"publisher"`
	ApplyLink string `json:"apply_link"`
}

// JobListing is an open position returned by job matching.
type JobListing struct {
	Title           string        `json:"title"`
	Company         string        `json:"company"`
	Location        string        `json:"location"`
	PostedAt        string        `json:"job_posted"`
	EmployerLogoURL string        `json:"employer_logo,omitempty"`
	ApplyOptions    []ApplyOption `json:"apply_options"`
}
