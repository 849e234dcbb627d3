package oauthmodel_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-exam-client/oauthmodel"
	"github.com/stretchr/testify/require"
)

func TestLoginResponse_Complete(t *testing.T) {
	user := json.RawMessage(`{"id":"u-1"}`)

	require.True(t, (&oauthmodel.LoginResponse{AccessToken: "a", RefreshToken: "r", User: user}).Complete())
	require.False(t, (&oauthmodel.LoginResponse{RefreshToken: "r", User: user}).Complete())
	require.False(t, (&oauthmodel.LoginResponse{AccessToken: "a", User: user}).Complete())
	require.False(t, (&oauthmodel.LoginResponse{AccessToken: "a", RefreshToken: "r"}).Complete())
	require.False(t, (&oauthmodel.LoginResponse{AccessToken: "a", RefreshToken: "r", User: json.RawMessage("null")}).Complete())

	var nilResp *oauthmodel.LoginResponse
	require.False(t, nilResp.Complete())
}

func TestHasProfile(t *testing.T) {
	require.True(t, oauthmodel.HasProfile(json.RawMessage(`{"name":"Kim"}`)))
	require.False(t, oauthmodel.HasProfile(nil))
	require.False(t, oauthmodel.HasProfile(json.RawMessage("  ")))
	require.False(t, oauthmodel.HasProfile(json.RawMessage("null")))
	require.False(t, oauthmodel.HasProfile(json.RawMessage("{broken")))
}

func TestParseProfile_DisplayName(t *testing.T) {
	p, err := oauthmodel.ParseProfile(json.RawMessage(`{"id":"u-1","username":"student01","extra":true}`))
	require.NoError(t, err)
	require.Equal(t, "student01", p.DisplayName())

	p, err = oauthmodel.ParseProfile(nil)
	require.NoError(t, err)
	require.Empty(t, p.DisplayName())
}

func TestSubmission_Validate(t *testing.T) {
	require.NoError(t, oauthmodel.Submission{Year: 2024, Month: 3, UserAnswers: []string{"1"}}.Validate())
	require.ErrorIs(t, oauthmodel.Submission{Year: 2024, Month: 13, UserAnswers: []string{"1"}}.Validate(), oauthmodel.ErrInvalidExamPeriod)
	require.ErrorIs(t, oauthmodel.Submission{Year: 2024, Month: 1}.Validate(), oauthmodel.ErrEmptySubmission)
}
