package web_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/leanworks/futurestate/pkg/web"
)

func TestCreateVersionRequest_Validation(t *testing.T) {
	t.Parallel()

	v := validator.New(validator.WithRequiredStructEnabled())

	tests := []struct {
		name    string
		request web.CreateVersionRequest
		wantErr bool
	}{
		{
			name:    "valid initial version",
			request: web.CreateVersionRequest{Name: "Future state v1"},
			wantErr: false,
		},
		{
			name: "valid branch",
			request: web.CreateVersionRequest{
				Name:            "Future state v2",
				Description:     "Branch for the automation experiment",
				SourceVersionID: "version-1",
			},
			wantErr: false,
		},
		{
			name:    "missing name",
			request: web.CreateVersionRequest{SourceVersionID: "version-1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := v.Struct(tt.request)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateNodeRequest_Validation(t *testing.T) {
	t.Parallel()

	v := validator.New(validator.WithRequiredStructEnabled())

	tests := []struct {
		name    string
		request web.CreateNodeRequest
		wantErr bool
	}{
		{
			name:    "valid node",
			request: web.CreateNodeRequest{Name: "Intake", Lane: "Operations"},
			wantErr: false,
		},
		{
			name:    "missing name",
			request: web.CreateNodeRequest{Lane: "Operations"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := v.Struct(tt.request)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateNodeRequest_Validation(t *testing.T) {
	t.Parallel()

	v := validator.New(validator.WithRequiredStructEnabled())

	// Empty patches are fine; an explicitly blank name is not.
	assert.NoError(t, v.Struct(web.UpdateNodeRequest{}))

	blank := ""
	assert.Error(t, v.Struct(web.UpdateNodeRequest{Name: &blank}))

	name := "Renamed"
	assert.NoError(t, v.Struct(web.UpdateNodeRequest{Name: &name}))
}

func TestCreateAnnotationRequest_Validation(t *testing.T) {
	t.Parallel()

	v := validator.New(validator.WithRequiredStructEnabled())

	tests := []struct {
		name    string
		request web.CreateAnnotationRequest
		wantErr bool
	}{
		{
			name:    "comment by default",
			request: web.CreateAnnotationRequest{Body: "Looks risky"},
			wantErr: false,
		},
		{
			name:    "flag",
			request: web.CreateAnnotationRequest{Body: "Blocked on SLA", Kind: "flag"},
			wantErr: false,
		},
		{
			name:    "unknown kind",
			request: web.CreateAnnotationRequest{Body: "Hm", Kind: "sticker"},
			wantErr: true,
		},
		{
			name:    "missing body",
			request: web.CreateAnnotationRequest{Kind: "comment"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := v.Struct(tt.request)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAnswerQuestionRequest_Validation(t *testing.T) {
	t.Parallel()

	v := validator.New(validator.WithRequiredStructEnabled())

	assert.NoError(t, v.Struct(web.AnswerQuestionRequest{QuestionID: "q-1", Answer: "Yes"}))
	assert.Error(t, v.Struct(web.AnswerQuestionRequest{Answer: "Yes"}))
	assert.Error(t, v.Struct(web.AnswerQuestionRequest{QuestionID: "q-1"}))
}
