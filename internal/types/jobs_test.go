package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobInput_Validate(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		desc      string
		wantField string
	}{
		{"valid", "  Go Engineer ", " Build services ", ""},
		{"empty title", "   ", "Build services", "title"},
		{"empty description", "Go Engineer", "\n\t", "description"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := NewJobInput(tt.title, tt.desc)
			err := in.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				assert.Equal(t, "Go Engineer", in.Title)
				assert.Equal(t, "Build services", in.Description)
				return
			}
			var ve *ValidationError
			assert.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestScoreBand(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "excellent"},
		{90, "excellent"},
		{89, "strong"},
		{80, "strong"},
		{70, "fair"},
		{69, "weak"},
		{0, "weak"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScoreBand(tt.score), "score %d", tt.score)
	}
}

func TestValidationError_Message(t *testing.T) {
	assert.Equal(t, "validation error in title: must not be empty", (&ValidationError{Field: "title", Message: "must not be empty"}).Error())
	assert.Equal(t, "validation error: bad", (&ValidationError{Message: "bad"}).Error())
}
