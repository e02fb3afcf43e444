package actions

import (
	"context"

	"github.com/getmockd/clappy/pkg/args"
	"github.com/getmockd/clappy/pkg/session"
)

var useSchema = args.Schema{
	args.APIID("apiId"),
	args.EnvID("envId"),
	args.GrantType("grantType"),
	args.Rest("extraneous"),
}

// use selects the API, environment and grant type requests are made with.
// Omitted values keep their current selection.
func (r *Registry) use(_ context.Context, s *session.Session, in ...any) (*session.Output, error) {
	f, err := args.Classify(in, useSchema, s)
	if err != nil {
		return nil, err
	}
	if f.Has("extraneous") {
		return nil, precondition("%s is not a valid API, environment, or grant type", f.String("extraneous"))
	}

	apiID, envID := s.APIID, s.EnvID
	if f.Has("apiId") {
		apiID = f.String("apiId")
	}
	if f.Has("envId") {
		envID = f.String("envId")
	}
	if apiID == "" || envID == "" {
		return nil, precondition("provide a valid API and environment")
	}
	if !s.SupportsEnv(apiID, envID) {
		return nil, precondition("%s does not support %s environment", apiID, envID)
	}

	grantType := f.String("grantType")
	if grantType == "" {
		grantType = s.GrantType
		if grantType == "" || !s.SupportsGrantType(apiID, grantType) {
			grantType = s.DefaultGrantType(apiID)
		}
	}
	if !s.SupportsGrantType(apiID, grantType) {
		return nil, precondition("%s does not support %s grant type", apiID, grantType)
	}

	if apiID == s.APIID && envID == s.EnvID && grantType == s.GrantType {
		return &session.Output{
			Notify: "Already using " + apiID + " with " + grantType + " grant type in " + envID + " environment.",
		}, nil
	}
	s.APIID, s.EnvID, s.GrantType = apiID, envID, grantType
	return &session.Output{
		Notify: "Now using " + apiID + " with " + grantType + " grant type in " + envID + " environment.",
	}, nil
}
